package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Assessor struct {
		APIKey         string `yaml:"apiKey"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"assessor"`

	ReverseSearch struct {
		Endpoint       string `yaml:"endpoint"`
		APIKey         string `yaml:"apiKey"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"reverseSearch"`

	// Auth maps tenant -> API key. Empty map disables auth.
	Auth struct {
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`   // max burst per tenant+IP
		RefillRate int `yaml:"refillRate"` // tokens per second
	} `yaml:"rateLimit"`

	// Engine holds the heuristic constants. They are tuned by inspection,
	// not derived from a labeled dataset, so they stay configurable.
	Engine Engine `yaml:"engine"`
}

type Engine struct {
	MaxUploadMiB  int `yaml:"maxUploadMiB"`
	CacheTTLHours int `yaml:"cacheTTLHours"`

	WeightLow    float64 `yaml:"weightLow"`
	WeightMedium float64 `yaml:"weightMedium"`
	WeightHigh   float64 `yaml:"weightHigh"`

	ELAQuality          int     `yaml:"elaQuality"`
	ELABlockSize        int     `yaml:"elaBlockSize"`
	ELAMaxErrorCutoff   float64 `yaml:"elaMaxErrorCutoff"`
	ELABlockCountCutoff int     `yaml:"elaBlockCountCutoff"`

	FrequencyPeakRatio float64 `yaml:"frequencyPeakRatio"`

	NoiseMeanCutoff   float64 `yaml:"noiseMeanCutoff"`
	NoiseStddevCutoff float64 `yaml:"noiseStddevCutoff"`

	UniformBlockSize        int     `yaml:"uniformBlockSize"`
	UniformVarianceCutoff   float64 `yaml:"uniformVarianceCutoff"`
	UniformBlockCountCutoff int     `yaml:"uniformBlockCountCutoff"`

	ArchiveTimeoutSeconds int `yaml:"archiveTimeoutSeconds"`
	ArchiveRetries        int `yaml:"archiveRetries"`
}

// DefaultEngine returns the tuned defaults.
func DefaultEngine() Engine {
	return Engine{
		MaxUploadMiB:            16,
		CacheTTLHours:           24,
		WeightLow:               5,
		WeightMedium:            15,
		WeightHigh:              30,
		ELAQuality:              90,
		ELABlockSize:            64,
		ELAMaxErrorCutoff:       30,
		ELABlockCountCutoff:     5,
		FrequencyPeakRatio:      10,
		NoiseMeanCutoff:         50,
		NoiseStddevCutoff:       10,
		UniformBlockSize:        10,
		UniformVarianceCutoff:   100,
		UniformBlockCountCutoff: 10,
		ArchiveTimeoutSeconds:   10,
		ArchiveRetries:          1,
	}
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	cfg.Engine = DefaultEngine()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
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
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Assessor.Model == "" {
		c.Assessor.Model = "gpt-4o-mini"
	}
	if c.Assessor.TimeoutSeconds == 0 {
		c.Assessor.TimeoutSeconds = 30
	}
	if c.ReverseSearch.TimeoutSeconds == 0 {
		c.ReverseSearch.TimeoutSeconds = 5
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 60
	}
	if c.RateLimit.RefillRate == 0 {
		c.RateLimit.RefillRate = 1
	}
	def := DefaultEngine()
	if c.Engine.MaxUploadMiB == 0 {
		c.Engine.MaxUploadMiB = def.MaxUploadMiB
	}
	if c.Engine.CacheTTLHours == 0 {
		c.Engine.CacheTTLHours = def.CacheTTLHours
	}
	if c.Engine.WeightLow == 0 {
		c.Engine.WeightLow = def.WeightLow
	}
	if c.Engine.WeightMedium == 0 {
		c.Engine.WeightMedium = def.WeightMedium
	}
	if c.Engine.WeightHigh == 0 {
		c.Engine.WeightHigh = def.WeightHigh
	}
	if c.Engine.ELAQuality == 0 {
		c.Engine.ELAQuality = def.ELAQuality
	}
	if c.Engine.ELABlockSize == 0 {
		c.Engine.ELABlockSize = def.ELABlockSize
	}
	if c.Engine.ELAMaxErrorCutoff == 0 {
		c.Engine.ELAMaxErrorCutoff = def.ELAMaxErrorCutoff
	}
	if c.Engine.ELABlockCountCutoff == 0 {
		c.Engine.ELABlockCountCutoff = def.ELABlockCountCutoff
	}
	if c.Engine.FrequencyPeakRatio == 0 {
		c.Engine.FrequencyPeakRatio = def.FrequencyPeakRatio
	}
	if c.Engine.NoiseMeanCutoff == 0 {
		c.Engine.NoiseMeanCutoff = def.NoiseMeanCutoff
	}
	if c.Engine.NoiseStddevCutoff == 0 {
		c.Engine.NoiseStddevCutoff = def.NoiseStddevCutoff
	}
	if c.Engine.UniformBlockSize == 0 {
		c.Engine.UniformBlockSize = def.UniformBlockSize
	}
	if c.Engine.UniformVarianceCutoff == 0 {
		c.Engine.UniformVarianceCutoff = def.UniformVarianceCutoff
	}
	if c.Engine.UniformBlockCountCutoff == 0 {
		c.Engine.UniformBlockCountCutoff = def.UniformBlockCountCutoff
	}
	if c.Engine.ArchiveTimeoutSeconds == 0 {
		c.Engine.ArchiveTimeoutSeconds = def.ArchiveTimeoutSeconds
	}
	if c.Engine.ArchiveRetries == 0 {
		c.Engine.ArchiveRetries = def.ArchiveRetries
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

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
