package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/wb-go/wbf/retry"
)

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Backend BackendConfig `yaml:"backend"`
	Auth    AuthConfig    `yaml:"auth"`
	Upload  UploadConfig  `yaml:"upload"`
	Render  RenderConfig  `yaml:"render"`
	Retry   RetryConfig   `yaml:"retry"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"5m"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint" env:"STORAGE_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"STORAGE_BUCKET" env-default:"images"`
	UseSSL    bool   `yaml:"use_ssl" env:"STORAGE_USE_SSL" env-default:"false"`
	Region    string `yaml:"region" env:"STORAGE_REGION" env-default:"us-east-1"`
	PartSize  int64  `yaml:"part_size" env:"STORAGE_PART_SIZE" env-default:"5242880"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url" env:"BACKEND_BASE_URL" env-default:"http://localhost:8000"`
	Timeout time.Duration `yaml:"timeout" env:"BACKEND_TIMEOUT" env-default:"30s"`
}

type AuthConfig struct {
	TokenPath   string        `yaml:"token_path" env:"AUTH_TOKEN_PATH" env-default:"/api/auth/token/"`
	RefreshPath string        `yaml:"refresh_path" env:"AUTH_REFRESH_PATH" env-default:"/api/auth/token/refresh/"`
	Email       string        `yaml:"email" env:"AUTH_EMAIL"`
	Password    string        `yaml:"password" env:"AUTH_PASSWORD"`
	StorePath   string        `yaml:"store_path" env:"AUTH_STORE_PATH" env-default:".euphro-tokens.json"`
	Leeway      time.Duration `yaml:"leeway" env:"AUTH_LEEWAY" env-default:"10s"`
}

type UploadConfig struct {
	ChunkSize         int64         `yaml:"chunk_size" env:"UPLOAD_CHUNK_SIZE" env-default:"4000000"`
	ChunkTimeout      time.Duration `yaml:"chunk_timeout" env:"UPLOAD_CHUNK_TIMEOUT" env-default:"0s"`
	MaxFileSize       int64         `yaml:"max_file_size" env:"UPLOAD_MAX_FILE_SIZE" env-default:"2147483648"`
	MaxRequestSize    int64         `yaml:"max_request_size" env:"UPLOAD_MAX_REQUEST_SIZE" env-default:"4294967296"`
	AllowedExtensions []string      `yaml:"allowed_extensions" env:"UPLOAD_ALLOWED_EXTENSIONS" env-separator:"," env-default:".pdf,.doc,.docx,.odt,.txt,.csv,.xlsx,.png,.jpg,.jpeg,.tif,.tiff"`
	StorageVersion    string        `yaml:"storage_version" env:"UPLOAD_STORAGE_VERSION"`
}

type RenderConfig struct {
	Format      string  `yaml:"format" env:"RENDER_FORMAT" env-default:"png"`
	JPEGQuality int     `yaml:"jpeg_quality" env:"RENDER_JPEG_QUALITY" env-default:"85"`
	FontSize    float64 `yaml:"font_size" env:"RENDER_FONT_SIZE" env-default:"18"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"200ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2"`
}

// MustLoad reads the YAML file named by CONFIG_PATH, or the environment alone
// when it is unset.
func MustLoad() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}
