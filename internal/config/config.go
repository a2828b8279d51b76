package config

import "time"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Content   ContentConfig   `yaml:"content"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Turnstile TurnstileConfig `yaml:"turnstile"`
	CORS      CORSConfig      `yaml:"cors"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

type UpstreamConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	// Decoding parameters sent with every completion request.
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// ResponseTimeout bounds the wait for upstream response headers only.
	// The stream itself has no deadline once it has started.
	ResponseTimeout time.Duration `yaml:"response_timeout"`
}

type ContentConfig struct {
	Dir string `yaml:"dir"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
	// Redis is optional; when unset the limiter keeps windows in process memory.
	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TurnstileConfig struct {
	Secret   string        `yaml:"secret"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxAge         int      `yaml:"max_age"`
}

type TelemetryConfig struct {
	LogLevel    string `yaml:"log_level"`
	MetricsPort int    `yaml:"metrics_port"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL:         "https://api.groq.com/openai/v1",
			Model:           "openai/gpt-oss-120b",
			Temperature:     0.7,
			MaxTokens:       1024,
			ResponseTimeout: 60 * time.Second,
		},
		Content: ContentConfig{
			Dir: "data",
		},
		RateLimit: RateLimitConfig{
			Requests: 20,
			Window:   5 * time.Minute,
		},
		Turnstile: TurnstileConfig{
			Endpoint: "https://challenges.cloudflare.com/turnstile/v0/siteverify",
			Timeout:  5 * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
			MaxAge:         3600,
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			MetricsPort: 9090,
		},
	}
}
