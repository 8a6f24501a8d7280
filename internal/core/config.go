package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jo-hoe/gobooth/internal/common"
)

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Storage struct {
	Type    string `yaml:"type"`
	Address string `yaml:"address"`
}

type Camera struct {
	Type            string          `yaml:"type"`
	StreamURL       string          `yaml:"streamUrl"`
	OpenAttempts    int             `yaml:"openAttempts"`
	AttemptInterval common.Duration `yaml:"attemptInterval"`
	LoadTimeout     common.Duration `yaml:"loadTimeout"`
}

type Capture struct {
	CountdownFrom int             `yaml:"countdownFrom"`
	Tick          common.Duration `yaml:"tick"`
	Pause         common.Duration `yaml:"pause"`
}

type ServiceConfig struct {
	Port           int      `yaml:"port"`
	Database       Database `yaml:"database"`
	Storage        Storage  `yaml:"storage"`
	Camera         Camera   `yaml:"camera"`
	Capture        Capture  `yaml:"capture"`
	ThumbnailWidth int      `yaml:"thumbnailWidth"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.ConnectionString == "" {
		c.Database.ConnectionString = "gobooth.db"
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "redis"
	}
	if c.Storage.Address == "" {
		c.Storage.Address = "localhost:6379"
	}
	if c.Camera.Type == "" {
		c.Camera.Type = "mjpeg"
	}
	if c.ThumbnailWidth == 0 {
		c.ThumbnailWidth = 320
	}
}

func (c *ServiceConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.Camera.Type {
	case "mjpeg":
		if c.Camera.StreamURL == "" {
			return fmt.Errorf("camera type mjpeg requires a streamUrl")
		}
	case "fake":
	default:
		return fmt.Errorf("unsupported camera type: %s", c.Camera.Type)
	}
	return nil
}
