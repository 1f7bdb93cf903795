package config

import (
	"fmt"
	"math"

	"github.com/kbukum/whisper-api/observability"
	"github.com/kbukum/whisper-api/server"
	"github.com/kbukum/whisper-api/transcription"
)

// DefaultServiceName names the process when config.yml does not.
const DefaultServiceName = "whisper-api"

// AppConfig is the full configuration of the transcription service.
type AppConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Transcription transcription.Config `yaml:"transcription" mapstructure:"transcription"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section. An unset server write timeout is
// derived from the transcription response budget.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Transcription.ApplyDefaults()
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = int(math.Ceil(c.Transcription.ResponseBudget().Seconds()))
	}
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section and reports the first failure.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}
