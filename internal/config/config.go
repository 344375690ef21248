package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Version is the release version reported by the version command.
const Version = "0.1.0"

// Config holds all chatsift configuration, populated from CHATSIFT_* env vars.
type Config struct {
	Mode            string        `env:"CHATSIFT_MODE" envDefault:"stream"`
	LogLevel        string        `env:"CHATSIFT_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"CHATSIFT_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Connector ConnectorConfig
	Engine    EngineConfig
	Pipeline  PipelineConfig
	Output    OutputConfig
	Summary   SummaryConfig
	Digest    DigestConfig
}

// ConnectorConfig holds chat source settings.
type ConnectorConfig struct {
	Provider string `env:"CHATSIFT_CONNECTOR" envDefault:"twitch"`
	Token    string `env:"CHATSIFT_TOKEN"`
	Endpoint string `env:"CHATSIFT_ENDPOINT"`
	Extra    map[string]string
}

// EngineConfig holds classification settings.
type EngineConfig struct {
	RulesFile   string `env:"CHATSIFT_RULES_FILE"`
	SampleLimit int    `env:"CHATSIFT_SAMPLE_LIMIT" envDefault:"3"`
	Verbosity   string `env:"CHATSIFT_VERBOSITY" envDefault:"standard"`
}

// PipelineConfig holds streaming cadence settings.
type PipelineConfig struct {
	Interval   time.Duration `env:"CHATSIFT_INTERVAL" envDefault:"5s"`
	WindowSize int           `env:"CHATSIFT_WINDOW" envDefault:"100"`
}

// OutputConfig holds output destination settings. Format accepts a
// comma-separated list ("stdout,webhook") fanned out to every sink.
type OutputConfig struct {
	Format        string `env:"CHATSIFT_OUTPUT" envDefault:"stdout"`
	StdoutMode    string `env:"CHATSIFT_STDOUT_MODE" envDefault:"json"`
	Pretty        bool   `env:"CHATSIFT_OUTPUT_PRETTY"`
	FilePath      string `env:"CHATSIFT_OUTPUT_FILE"`
	WebhookURL    string `env:"CHATSIFT_WEBHOOK_URL"`
	DashboardPort int    `env:"CHATSIFT_DASHBOARD_PORT" envDefault:"8080"`
}

// SummaryConfig holds digest summarizer settings. An empty LLMBaseURL
// selects the heuristic summarizer.
type SummaryConfig struct {
	LLMBaseURL   string `env:"CHATSIFT_LLM_BASE_URL"`
	LLMAPIKey    string `env:"CHATSIFT_LLM_API_KEY"`
	LLMModel     string `env:"CHATSIFT_LLM_MODEL"`
	PromptBudget int    `env:"CHATSIFT_PROMPT_BUDGET"`
}

// DigestConfig holds the periodic digest schedule. An empty Schedule
// disables the digest entirely.
type DigestConfig struct {
	Schedule string `env:"CHATSIFT_DIGEST_SCHEDULE"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Connector.Extra = loadConnectorExtra()
	return cfg, nil
}

// loadConnectorExtra reads provider-specific env vars into an Extra map.
func loadConnectorExtra() map[string]string {
	vars := []struct {
		envVar   string
		extraKey string
	}{
		{"CHATSIFT_TWITCH_CHANNEL", "channel"},
		{"CHATSIFT_TWITCH_NICK", "nick"},
		{"CHATSIFT_YOUTUBE_LIVE_CHAT_ID", "live_chat_id"},
		{"CHATSIFT_TELEGRAM_CHAT_ID", "chat_id"},
		{"CHATSIFT_REPLAY_FILE", "file"},
		{"CHATSIFT_REPLAY_INTERVAL", "interval"},
		{"CHATSIFT_POLL_INTERVAL", "poll_interval"},
		{"CHATSIFT_WS_BACKOFF", "backoff"},
	}

	var m map[string]string
	for _, v := range vars {
		if val := os.Getenv(v.envVar); val != "" {
			if m == nil {
				m = make(map[string]string)
			}
			m[v.extraKey] = val
		}
	}
	return m
}

// Formats splits the comma-separated CHATSIFT_OUTPUT value.
func (o OutputConfig) Formats() []string {
	parts := strings.Split(o.Format, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Has reports whether format is among the configured outputs.
func (o OutputConfig) Has(format string) bool {
	return slices.Contains(o.Formats(), format)
}

// Validate checks configuration consistency before the pipeline starts.
// All problems are reported at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Mode {
	case "stream", "query":
	default:
		errs = append(errs, fmt.Errorf("invalid mode %q (use \"stream\" or \"query\")", c.Mode))
	}

	switch c.Engine.Verbosity {
	case "minimal", "standard", "full":
	default:
		errs = append(errs, fmt.Errorf("invalid verbosity %q (use \"minimal\", \"standard\" or \"full\")", c.Engine.Verbosity))
	}

	if c.Engine.SampleLimit < 0 {
		errs = append(errs, fmt.Errorf("sample limit must not be negative, got %d", c.Engine.SampleLimit))
	}

	if c.Engine.RulesFile != "" {
		if _, err := os.Stat(c.Engine.RulesFile); err != nil {
			errs = append(errs, fmt.Errorf("rules file: %w", err))
		}
	}

	if c.Pipeline.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %v", c.Pipeline.Interval))
	}
	if c.Pipeline.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %d", c.Pipeline.WindowSize))
	}

	formats := c.Output.Formats()
	if len(formats) == 0 {
		errs = append(errs, errors.New("no output configured"))
	}
	for _, format := range formats {
		switch format {
		case "stdout", "file", "webhook", "dashboard":
		default:
			errs = append(errs, fmt.Errorf("unknown output format %q", format))
		}
	}
	if c.Output.Has("file") && c.Output.FilePath == "" {
		errs = append(errs, errors.New("file output requires CHATSIFT_OUTPUT_FILE"))
	}
	if c.Output.Has("webhook") && c.Output.WebhookURL == "" {
		errs = append(errs, errors.New("webhook output requires CHATSIFT_WEBHOOK_URL"))
	}

	return errors.Join(errs...)
}
