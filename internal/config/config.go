package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port" envconfig:"SERVER_PORT"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver" envconfig:"DB_DRIVER"` // mysql | postgres
		Host     string `yaml:"host" envconfig:"DB_HOST"`
		Port     int    `yaml:"port" envconfig:"DB_PORT"`
		User     string `yaml:"user" envconfig:"DB_USER"`
		Password string `yaml:"password" envconfig:"DB_PASSWORD"`
		Name     string `yaml:"name" envconfig:"DB_NAME"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint" envconfig:"MINIO_ENDPOINT"`
		AccessKey  string `yaml:"accessKey" envconfig:"MINIO_ACCESS_KEY"`
		SecretKey  string `yaml:"secretKey" envconfig:"MINIO_SECRET_KEY"`
		BucketName string `yaml:"bucketName" envconfig:"MINIO_BUCKET"`
		Region     string `yaml:"region" envconfig:"MINIO_REGION"`
		UseSSL     bool   `yaml:"useSSL" envconfig:"MINIO_USE_SSL"`
	} `yaml:"minio"`

	AI struct {
		APIKey             string `yaml:"apiKey" envconfig:"AI_API_KEY"`
		Model              string `yaml:"model" envconfig:"AI_MODEL"`
		EmbedModel         string `yaml:"embedModel" envconfig:"AI_EMBED_MODEL"`
		EmbedDim           int    `yaml:"embedDim" envconfig:"AI_EMBED_DIM"`
		MaxInFlight        int    `yaml:"maxInFlight" envconfig:"AI_MAX_IN_FLIGHT"`
		CallTimeoutSeconds int    `yaml:"callTimeoutSeconds" envconfig:"AI_CALL_TIMEOUT_SECONDS"`
	} `yaml:"ai"`

	Analysis struct {
		ComplexityThreshold int `yaml:"complexityThreshold" envconfig:"ANALYSIS_COMPLEXITY_THRESHOLD"`
		MaxFileKB           int `yaml:"maxFileKB" envconfig:"ANALYSIS_MAX_FILE_KB"`
		MaxFiles            int `yaml:"maxFiles" envconfig:"ANALYSIS_MAX_FILES"`
	} `yaml:"analysis"`

	Index struct {
		ChunkSize    int `yaml:"chunkSize" envconfig:"INDEX_CHUNK_SIZE"`
		ChunkOverlap int `yaml:"chunkOverlap" envconfig:"INDEX_CHUNK_OVERLAP"`
		BatchSize    int `yaml:"batchSize" envconfig:"INDEX_BATCH_SIZE"`
	} `yaml:"index"`

	Auth struct {
		// tenant -> API key
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity" envconfig:"RATELIMIT_CAPACITY"`
		RefillRate int `yaml:"refillRate" envconfig:"RATELIMIT_REFILL_RATE"`
	} `yaml:"rateLimit"`
}

// Load baca file config.yaml, environment overrides win (CODEIQ_ prefix)
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("CODEIQ", &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 60
	}
	if c.RateLimit.RefillRate == 0 {
		c.RateLimit.RefillRate = 1
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
