package aws

import "context"

// EnvProvider resolves credentials from the process environment. It performs
// no I/O and never fails.
type EnvProvider struct {
	Config *ConfigLoader
}

// Name implements Provider.
func (p *EnvProvider) Name() string { return "env" }

// Load implements Provider. A credential is returned only when both the
// access key id and the secret key are present; the session token is
// attached when set.
func (p *EnvProvider) Load(ctx context.Context) (*Credential, error) {
	p.Config.LoadViaEnv()
	return credentialFromConfig(p.Config), nil
}

// ProfileProvider resolves credentials from the shared config and
// credentials files via the config loader.
type ProfileProvider struct {
	Config *ConfigLoader
}

// Name implements Provider.
func (p *ProfileProvider) Name() string { return "profile" }

// Load implements Provider.
func (p *ProfileProvider) Load(ctx context.Context) (*Credential, error) {
	p.Config.LoadViaProfile()
	return credentialFromConfig(p.Config), nil
}

func credentialFromConfig(cfg *ConfigLoader) *Credential {
	ak, sk := cfg.AccessKeyID(), cfg.SecretAccessKey()
	if ak == "" || sk == "" {
		return nil
	}
	return &Credential{
		AccessKeyID:     ak,
		SecretAccessKey: sk,
		SessionToken:    cfg.SessionToken(),
	}
}
