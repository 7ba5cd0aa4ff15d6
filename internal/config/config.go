// Package config loads the reqsign CLI configuration from
// ~/.reqsign/config.yaml with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds CLI-level settings: provider toggles, endpoint overrides and
// static Azure fields. Library defaults apply for anything left unset.
type Config struct {
	AWS   AWSConfig   `yaml:"aws"`
	Azure AzureConfig `yaml:"azure"`
}

// AWSConfig configures the AWS credential chain.
type AWSConfig struct {
	Profile string `yaml:"profile,omitempty"`
	Region  string `yaml:"region,omitempty"`

	DisableEnv         bool `yaml:"disable_env,omitempty"`
	DisableProfile     bool `yaml:"disable_profile,omitempty"`
	DisableWebIdentity bool `yaml:"disable_web_identity,omitempty"`
	DisableIMDS        bool `yaml:"disable_imds,omitempty"`

	STSEndpoint  string `yaml:"sts_endpoint,omitempty"`
	IMDSEndpoint string `yaml:"imds_endpoint,omitempty"`
}

// AzureConfig configures the Azure credential sources. At most one of
// ObjectID, ClientID and ResourceID may be set.
type AzureConfig struct {
	AccountName string `yaml:"account_name,omitempty"`
	AccountKey  string `yaml:"account_key,omitempty"`
	SASToken    string `yaml:"sas_token,omitempty"`

	Endpoint   string `yaml:"endpoint,omitempty"`
	Secret     string `yaml:"secret,omitempty"`
	Resource   string `yaml:"resource,omitempty"`
	ObjectID   string `yaml:"object_id,omitempty"`
	ClientID   string `yaml:"client_id,omitempty"`
	ResourceID string `yaml:"msi_res_id,omitempty"`
}

// Validate checks constraints that yaml parsing cannot express.
func (c *Config) Validate() error {
	selectors := 0
	for _, v := range []string{c.Azure.ObjectID, c.Azure.ClientID, c.Azure.ResourceID} {
		if v != "" {
			selectors++
		}
	}
	if selectors > 1 {
		return fmt.Errorf("azure: object_id, client_id and msi_res_id are mutually exclusive")
	}
	return nil
}

// Load reads the config file and applies environment overrides. A missing
// file yields the zero config.
func Load() (*Config, error) {
	cfg := &Config{}

	path := os.Getenv("REQSIGN_CONFIG")
	if path == "" {
		path = filepath.Join(Dir(), "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if v := os.Getenv("REQSIGN_AZURE_SAS_TOKEN"); v != "" {
		cfg.Azure.SASToken = v
	}
	if v := os.Getenv("REQSIGN_AZURE_ACCOUNT_NAME"); v != "" {
		cfg.Azure.AccountName = v
	}
	if v := os.Getenv("REQSIGN_AZURE_ACCOUNT_KEY"); v != "" {
		cfg.Azure.AccountKey = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Dir returns the path to ~/.reqsign.
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".reqsign")
	}
	return filepath.Join(homeDir, ".reqsign")
}
