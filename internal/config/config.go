package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration settings.
type Config struct {
	Environment string `envconfig:"ENV" default:"development"`

	HTTPPort    int           `envconfig:"HTTP_PORT" default:"8080"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`

	DataDir    string `envconfig:"DATA_DIR" default:"./data"`
	StateFile  string `envconfig:"STATE_FILE" default:"./data/tasks.json"`
	ResultsDir string `envconfig:"RESULTS_DIR" default:"./data/results"`

	SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"30s"`
	TaskRetention    time.Duration `envconfig:"TASK_RETENTION" default:"168h"`

	MaxChunkAttempts int           `envconfig:"MAX_CHUNK_ATTEMPTS" default:"3"`
	ChunkTimeout     time.Duration `envconfig:"CHUNK_TIMEOUT" default:"5m"`
	RetryBackoffBase time.Duration `envconfig:"RETRY_BACKOFF_BASE" default:"1s"`

	MaxChunkChars    int `envconfig:"MAX_CHUNK_CHARS" default:"6000"`
	OverlapSentences int `envconfig:"OVERLAP_SENTENCES" default:"2"`

	AgentURL string `envconfig:"AGENT_URL" default:"http://localhost:8001/translate"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	if c.StateFile == "" {
		return fmt.Errorf("state file cannot be empty")
	}
	if c.ResultsDir == "" {
		return fmt.Errorf("results directory cannot be empty")
	}

	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("snapshot interval must be positive: %s", c.SnapshotInterval)
	}
	if c.TaskRetention <= 0 {
		return fmt.Errorf("task retention must be positive: %s", c.TaskRetention)
	}

	if c.MaxChunkAttempts <= 0 {
		return fmt.Errorf("max chunk attempts must be positive: %d", c.MaxChunkAttempts)
	}
	if c.ChunkTimeout <= 0 {
		return fmt.Errorf("chunk timeout must be positive: %s", c.ChunkTimeout)
	}
	if c.RetryBackoffBase <= 0 {
		return fmt.Errorf("retry backoff base must be positive: %s", c.RetryBackoffBase)
	}

	if c.MaxChunkChars <= 0 {
		return fmt.Errorf("max chunk chars must be positive: %d", c.MaxChunkChars)
	}
	if c.OverlapSentences < 0 {
		return fmt.Errorf("overlap sentences cannot be negative: %d", c.OverlapSentences)
	}

	if c.AgentURL == "" {
		return fmt.Errorf("agent URL cannot be empty")
	}

	return nil
}
