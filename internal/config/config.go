package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the tunables required to start the vendor command server.
type ServerConfig struct {
	Addr                    string      `yaml:"addr"`
	DatabaseFile            string      `yaml:"database_file"`
	UpgradeVerifyKeyFile    string      `yaml:"upgrade_verify_key_file"`
	DisableUpgrade          bool        `yaml:"disable_upgrade"`
	AllowMainChannel        bool        `yaml:"allow_main_channel"`
	RequireBatchAttestation *bool       `yaml:"require_batch_attestation"`
	Logger                  *log.Logger `yaml:"-"`
}

type ClientConfig struct {
	BaseURL     string
	ContentType string
	InsecureTLS bool
	Timeout     time.Duration
	Logger      *log.Logger
}

// DefaultServer returns the configuration used when no file or flag
// overrides it.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Addr: ":8640",
	}
}

// LoadServerFile overlays the YAML document at path onto the default
// server configuration. Fields absent from the document keep their
// default values.
func LoadServerFile(path string) (ServerConfig, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}
