package aws

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/ini.v1"

	"github.com/reqsign/reqsign/internal/log"
)

// Config holds the static fields a ConfigLoader starts from. Any field left
// empty may be filled in later by LoadViaEnv or LoadViaProfile.
type Config struct {
	AccessKeyID           string
	SecretAccessKey       string
	SessionToken          string
	Region                string
	Profile               string
	ConfigFile            string
	SharedCredentialsFile string
	WebIdentityTokenFile  string
	RoleARN               string
	RoleSessionName       string
	STSRegionalEndpoints  string
}

// ConfigLoader accumulates configuration from static values, the process
// environment and shared profile files. It is shared by reference between the
// providers of one credential chain; all access goes through its mutex.
type ConfigLoader struct {
	mu  sync.Mutex
	cfg Config
}

// NewConfigLoader returns a ConfigLoader seeded with the given static config.
func NewConfigLoader(cfg Config) *ConfigLoader {
	return &ConfigLoader{cfg: cfg}
}

// LoadViaEnv reads credential configuration from the process environment.
// Set environment variables overwrite previously loaded values.
func (l *ConfigLoader) LoadViaEnv() {
	l.mu.Lock()
	defer l.mu.Unlock()

	setIfPresent := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setIfPresent(&l.cfg.AccessKeyID, EnvAccessKeyID)
	setIfPresent(&l.cfg.SecretAccessKey, EnvSecretAccessKey)
	setIfPresent(&l.cfg.SessionToken, EnvSessionToken)
	setIfPresent(&l.cfg.Region, EnvRegion)
	setIfPresent(&l.cfg.Profile, EnvProfile)
	setIfPresent(&l.cfg.ConfigFile, EnvConfigFile)
	setIfPresent(&l.cfg.SharedCredentialsFile, EnvSharedCredentialsFile)
	setIfPresent(&l.cfg.WebIdentityTokenFile, EnvWebIdentityTokenFile)
	setIfPresent(&l.cfg.RoleARN, EnvRoleARN)
	setIfPresent(&l.cfg.RoleSessionName, EnvRoleSessionName)
	setIfPresent(&l.cfg.STSRegionalEndpoints, EnvSTSRegionalEndpoints)
}

// LoadViaProfile reads credential configuration from the config file and the
// shared credentials file. The shared credentials file is applied last so its
// values take precedence over the config file; callers depend on this order.
func (l *ConfigLoader) LoadViaProfile() {
	l.mu.Lock()
	defer l.mu.Unlock()

	profile := l.cfg.Profile
	if profile == "" {
		profile = os.Getenv(EnvProfile)
	}
	if profile == "" {
		profile = DefaultProfile
	}

	configFile := l.cfg.ConfigFile
	if configFile == "" {
		configFile = os.Getenv(EnvConfigFile)
	}
	if configFile == "" {
		configFile = defaultPath("config")
	}

	credsFile := l.cfg.SharedCredentialsFile
	if credsFile == "" {
		credsFile = os.Getenv(EnvSharedCredentialsFile)
	}
	if credsFile == "" {
		credsFile = defaultPath("credentials")
	}

	// In the config file, non-default profiles live in "profile xxx" sections.
	configSection := profile
	if profile != DefaultProfile {
		configSection = "profile " + profile
	}

	l.applyProfileFile(configFile, configSection)
	l.applyProfileFile(credsFile, profile)
}

// applyProfileFile merges one ini file section into the config. A missing or
// unreadable file is not an error; the chain treats it as unconfigured.
func (l *ConfigLoader) applyProfileFile(path, section string) {
	f, err := ini.Load(path)
	if err != nil {
		log.Debug("skipping profile file", "path", path, "error", err)
		return
	}

	sec, err := f.GetSection(section)
	if err != nil {
		return
	}

	setIfPresent := func(dst *string, key string) {
		if v := sec.Key(key).String(); v != "" {
			*dst = v
		}
	}

	setIfPresent(&l.cfg.AccessKeyID, "aws_access_key_id")
	setIfPresent(&l.cfg.SecretAccessKey, "aws_secret_access_key")
	setIfPresent(&l.cfg.SessionToken, "aws_session_token")
	setIfPresent(&l.cfg.Region, "region")
	setIfPresent(&l.cfg.RoleARN, "role_arn")
	setIfPresent(&l.cfg.WebIdentityTokenFile, "web_identity_token_file")
	setIfPresent(&l.cfg.RoleSessionName, "role_session_name")
}

func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", name)
}

// AccessKeyID returns the loaded access key id, if any.
func (l *ConfigLoader) AccessKeyID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.AccessKeyID
}

// SecretAccessKey returns the loaded secret access key, if any.
func (l *ConfigLoader) SecretAccessKey() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.SecretAccessKey
}

// SessionToken returns the loaded session token, if any.
func (l *ConfigLoader) SessionToken() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.SessionToken
}

// Region returns the loaded region, if any.
func (l *ConfigLoader) Region() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.Region
}

// WebIdentityTokenFile returns the loaded web identity token file path, if any.
func (l *ConfigLoader) WebIdentityTokenFile() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.WebIdentityTokenFile
}

// RoleARN returns the loaded role ARN, if any.
func (l *ConfigLoader) RoleARN() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.RoleARN
}

// RoleSessionName returns the loaded role session name, or the default.
func (l *ConfigLoader) RoleSessionName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cfg.RoleSessionName != "" {
		return l.cfg.RoleSessionName
	}
	return DefaultRoleSessionName
}

// STSRegionalEndpoints returns the STS endpoint resolution mode, if any.
func (l *ConfigLoader) STSRegionalEndpoints() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.STSRegionalEndpoints
}
