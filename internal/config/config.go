package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
)

var (
	ErrInvalidPort      = errors.New("server port out of range")
	ErrUnknownProvider  = errors.New("unknown generator provider")
	ErrUnknownTransport = errors.New("unknown client transport")
	ErrInvalidInterval  = errors.New("interval must be positive")
	ErrInvalidChunking  = errors.New("chunk_words must be positive")
)

// Provider names accepted in generator.provider.
const (
	ProviderMock      = "mock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Generator GeneratorConfig `yaml:"generator"`
	Client    ClientConfig    `yaml:"client"`
	Log       LogConfig       `yaml:"log"`
	Options   recipe.Options  `yaml:"options"`
}

type ServerConfig struct {
	Port              int           `yaml:"port"`
	Host              string        `yaml:"host"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	MaxStreams        int           `yaml:"max_streams"`
}

type GeneratorConfig struct {
	Provider   string        `yaml:"provider"`
	Model      string        `yaml:"model"`
	MaxTokens  int           `yaml:"max_tokens"`
	APIKeyEnv  string        `yaml:"api_key_env"`
	BaseURL    string        `yaml:"base_url"`
	ChunkDelay time.Duration `yaml:"chunk_delay"`
	ChunkWords int           `yaml:"chunk_words"`
}

type ClientConfig struct {
	BaseURL   string `yaml:"base_url"`
	Transport string `yaml:"transport"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Pretty bool   `yaml:"pretty"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              3001,
			Host:              "127.0.0.1",
			HeartbeatInterval: 15 * time.Second,
			MaxStreams:        64,
		},
		Generator: GeneratorConfig{
			Provider:   ProviderMock,
			MaxTokens:  1024,
			ChunkDelay: 40 * time.Millisecond,
			ChunkWords: 3,
		},
		Client: ClientConfig{
			BaseURL:   "http://127.0.0.1:3001",
			Transport: "sse",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
		Options: recipe.DefaultOptions(),
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	cfg.Options = cfg.Options.Merge(recipe.DefaultOptions())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Wrapf(ErrInvalidPort, "port %d", c.Server.Port)
	}
	if c.Server.HeartbeatInterval <= 0 {
		return errors.Wrap(ErrInvalidInterval, "server.heartbeat_interval")
	}
	if c.Generator.ChunkDelay < 0 {
		return errors.Wrap(ErrInvalidInterval, "generator.chunk_delay")
	}
	if c.Generator.ChunkWords <= 0 {
		return ErrInvalidChunking
	}
	switch c.Generator.Provider {
	case ProviderMock, ProviderOpenAI, ProviderAnthropic:
	default:
		return errors.Wrapf(ErrUnknownProvider, "%q", c.Generator.Provider)
	}
	switch c.Client.Transport {
	case "sse", "ws":
	default:
		return errors.Wrapf(ErrUnknownTransport, "%q", c.Client.Transport)
	}
	return nil
}

// APIKey resolves the generator API key from the environment. When no
// variable is configured the provider's conventional one is used.
func (g GeneratorConfig) APIKey() string {
	env := g.APIKeyEnv
	if env == "" {
		switch g.Provider {
		case ProviderOpenAI:
			env = "OPENAI_API_KEY"
		case ProviderAnthropic:
			env = "ANTHROPIC_API_KEY"
		default:
			return ""
		}
	}
	return os.Getenv(env)
}
