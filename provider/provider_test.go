package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type testProvider struct {
	name      string
	available bool
}

func (p *testProvider) Name() string                      { return p.name }
func (p *testProvider) IsAvailable(context.Context) bool { return p.available }

type testOptions struct {
	Label string
}

func TestRegistryRegisterAndCreate(t *testing.T) {
	reg := NewRegistry[*testProvider, testOptions]()
	reg.RegisterFactory("test", func(opts testOptions) (*testProvider, error) {
		return &testProvider{name: opts.Label, available: true}, nil
	})

	p, err := reg.Create("test", testOptions{Label: "configured"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Name() != "configured" {
		t.Errorf("expected options to reach the factory, got %q", p.Name())
	}
	if !reg.Has("test") || reg.Has("other") {
		t.Error("Has returned unexpected result")
	}
}

func TestRegistryCreateUnregistered(t *testing.T) {
	reg := NewRegistry[*testProvider, testOptions]()
	reg.RegisterFactory("local", func(testOptions) (*testProvider, error) { return &testProvider{}, nil })

	_, err := reg.Create("missing", testOptions{})
	if err == nil {
		t.Fatal("expected error for unregistered factory")
	}
	if !strings.Contains(err.Error(), "not registered") || !strings.Contains(err.Error(), "local") {
		t.Errorf("expected error to name the available factories, got %q", err.Error())
	}
}

func TestRegistryFactoryError(t *testing.T) {
	reg := NewRegistry[*testProvider, testOptions]()
	boom := errors.New("missing api key")
	reg.RegisterFactory("broken", func(testOptions) (*testProvider, error) { return nil, boom })

	if _, err := reg.Create("broken", testOptions{}); !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry[*testProvider, testOptions]()
	reg.RegisterFactory("beta", func(testOptions) (*testProvider, error) { return &testProvider{name: "beta"}, nil })
	reg.RegisterFactory("alpha", func(testOptions) (*testProvider, error) { return &testProvider{name: "alpha"}, nil })

	names := reg.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("expected sorted [alpha beta], got %v", names)
	}
}
