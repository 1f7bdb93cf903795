package transcription

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kbukum/whisper-api/validation"
)

// Provider names.
const (
	ProviderLocal   = "local"
	ProviderWhisper = "whisper"
	ProviderOpenAI  = "openai"
	ProviderStub    = "stub"
)

// LanguageAuto disables the language hint and lets the engine detect it.
const LanguageAuto = "auto"

const (
	defaultProvider      = ProviderLocal
	defaultModel         = "medium"
	defaultLanguage      = "en"
	defaultDevice        = "auto"
	defaultBinary        = "whisper"
	defaultMaxConcurrent = 1
	defaultTimeout       = 10 * time.Minute
	responseMargin       = 30 * time.Second
)

// Config configures the transcription engine. It is read once at startup.
type Config struct {
	// Provider selects the backend: local, whisper, openai or stub.
	Provider string `mapstructure:"provider" validate:"required,oneof=local whisper openai stub"`
	// Model is the model name passed to the backend (e.g. "medium", "whisper-1").
	Model string `mapstructure:"model" validate:"required"`
	// Language is the hint sent with every request. "auto" disables it.
	Language string `mapstructure:"language" validate:"required"`
	// Device is the compute device preference: auto, cpu, cuda or mps.
	Device string `mapstructure:"device" validate:"required,oneof=auto cpu cuda mps"`
	// ScratchDir holds uploaded audio while it is transcribed. Defaults to the OS temp dir.
	ScratchDir string `mapstructure:"scratch_dir"`
	// MaxConcurrent is the number of engine invocations allowed at once.
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"min=1"`
	// MaxWait bounds how long a request queues for an engine slot. Zero waits
	// until the request context ends.
	MaxWait time.Duration `mapstructure:"max_wait" validate:"min=0"`
	// RejectWhenBusy fails a request at once when every slot is taken
	// instead of queueing it. MaxWait is ignored when set.
	RejectWhenBusy bool `mapstructure:"reject_when_busy"`
	// Timeout bounds a single engine invocation.
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`

	// Binary is the whisper CLI used by the local provider.
	Binary string `mapstructure:"binary"`
	// URL is the sidecar base URL (whisper) or the API base URL (openai).
	URL string `mapstructure:"url" validate:"omitempty,url"`
	// APIKey authenticates against the OpenAI API.
	APIKey string `mapstructure:"api_key"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = defaultProvider
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Language == "" {
		c.Language = defaultLanguage
	}
	if c.Device == "" {
		c.Device = defaultDevice
	}
	if c.ScratchDir == "" {
		c.ScratchDir = os.TempDir()
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.Binary == "" {
		c.Binary = defaultBinary
	}
	c.Provider = strings.ToLower(c.Provider)
	c.Device = strings.ToLower(c.Device)
	c.Language = strings.ToLower(c.Language)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Provider == ProviderOpenAI && c.APIKey == "" {
		return fmt.Errorf("transcription: api_key is required for the %s provider", ProviderOpenAI)
	}
	if c.Provider == ProviderWhisper && c.URL == "" {
		return fmt.Errorf("transcription: url is required for the %s provider", ProviderWhisper)
	}
	return nil
}

// ResponseBudget is how long a request may take end to end: the queue wait,
// one engine run and a margin for upload and encoding. An unbounded queue is
// budgeted as one full run ahead of the request.
func (c *Config) ResponseBudget() time.Duration {
	wait := c.MaxWait
	switch {
	case c.RejectWhenBusy:
		wait = 0
	case wait == 0:
		wait = c.Timeout
	}
	return wait + c.Timeout + responseMargin
}

// LanguageHint returns the language passed to the engine; empty means detect.
func (c *Config) LanguageHint() string {
	if c.Language == LanguageAuto {
		return ""
	}
	return c.Language
}
