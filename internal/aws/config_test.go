package aws

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearAWSEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvAccessKeyID, EnvSecretAccessKey, EnvSessionToken, EnvRegion,
		EnvProfile, EnvConfigFile, EnvSharedCredentialsFile,
		EnvWebIdentityTokenFile, EnvRoleARN, EnvRoleSessionName,
		EnvSTSRegionalEndpoints,
	} {
		t.Setenv(key, "")
	}
}

func TestConfigLoaderLoadViaEnv(t *testing.T) {
	clearAWSEnv(t)
	t.Setenv(EnvAccessKeyID, "access_key_id")
	t.Setenv(EnvSecretAccessKey, "secret_access_key")
	t.Setenv(EnvSessionToken, "session_token")
	t.Setenv(EnvRegion, "us-west-2")

	l := NewConfigLoader(Config{})
	l.LoadViaEnv()

	assert.Equal(t, "access_key_id", l.AccessKeyID())
	assert.Equal(t, "secret_access_key", l.SecretAccessKey())
	assert.Equal(t, "session_token", l.SessionToken())
	assert.Equal(t, "us-west-2", l.Region())
}

func TestConfigLoaderEnvDoesNotClearStatic(t *testing.T) {
	clearAWSEnv(t)

	l := NewConfigLoader(Config{AccessKeyID: "static_id", SecretAccessKey: "static_secret"})
	l.LoadViaEnv()

	assert.Equal(t, "static_id", l.AccessKeyID())
	assert.Equal(t, "static_secret", l.SecretAccessKey())
}

func writeProfileFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigLoaderLoadViaProfileFromConfig(t *testing.T) {
	clearAWSEnv(t)

	configFile := writeProfileFile(t, "config", `[default]
aws_access_key_id = config_access_key_id
aws_secret_access_key = config_secret_access_key
region = eu-central-1
`)
	t.Setenv(EnvConfigFile, configFile)
	t.Setenv(EnvSharedCredentialsFile, filepath.Join(t.TempDir(), "not_exist"))

	l := NewConfigLoader(Config{})
	l.LoadViaProfile()

	assert.Equal(t, "config_access_key_id", l.AccessKeyID())
	assert.Equal(t, "config_secret_access_key", l.SecretAccessKey())
	assert.Equal(t, "eu-central-1", l.Region())
}

func TestConfigLoaderLoadViaProfileFromShared(t *testing.T) {
	clearAWSEnv(t)

	credsFile := writeProfileFile(t, "credentials", `[default]
aws_access_key_id = shared_access_key_id
aws_secret_access_key = shared_secret_access_key
`)
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "not_exist"))
	t.Setenv(EnvSharedCredentialsFile, credsFile)

	l := NewConfigLoader(Config{})
	l.LoadViaProfile()

	assert.Equal(t, "shared_access_key_id", l.AccessKeyID())
	assert.Equal(t, "shared_secret_access_key", l.SecretAccessKey())
}

// The shared credentials file must win when both files define the profile.
func TestConfigLoaderSharedCredentialsTakePrecedence(t *testing.T) {
	clearAWSEnv(t)

	configFile := writeProfileFile(t, "config", `[default]
aws_access_key_id = config_access_key_id
aws_secret_access_key = config_secret_access_key
`)
	credsFile := writeProfileFile(t, "credentials", `[default]
aws_access_key_id = shared_access_key_id
aws_secret_access_key = shared_secret_access_key
`)
	t.Setenv(EnvConfigFile, configFile)
	t.Setenv(EnvSharedCredentialsFile, credsFile)

	l := NewConfigLoader(Config{})
	l.LoadViaProfile()

	assert.Equal(t, "shared_access_key_id", l.AccessKeyID())
	assert.Equal(t, "shared_secret_access_key", l.SecretAccessKey())
}

func TestConfigLoaderNamedProfile(t *testing.T) {
	clearAWSEnv(t)

	configFile := writeProfileFile(t, "config", `[profile dev]
aws_access_key_id = dev_access_key_id
aws_secret_access_key = dev_secret_access_key
`)
	t.Setenv(EnvConfigFile, configFile)
	t.Setenv(EnvSharedCredentialsFile, filepath.Join(t.TempDir(), "not_exist"))
	t.Setenv(EnvProfile, "dev")

	l := NewConfigLoader(Config{})
	l.LoadViaProfile()

	assert.Equal(t, "dev_access_key_id", l.AccessKeyID())
}

func TestConfigLoaderRoleSessionNameDefault(t *testing.T) {
	clearAWSEnv(t)

	l := NewConfigLoader(Config{})
	assert.Equal(t, DefaultRoleSessionName, l.RoleSessionName())

	l = NewConfigLoader(Config{RoleSessionName: "my-session"})
	assert.Equal(t, "my-session", l.RoleSessionName())
}
