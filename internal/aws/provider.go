package aws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/reqsign/reqsign/internal/log"
)

// Provider is a single credential source in the chain.
//
// Load returns (nil, nil) when the provider is not applicable (its required
// configuration is absent), a credential on success, or an error when a
// configured source fails. The chain skips inapplicable providers and stops
// on the first credential or error.
type Provider interface {
	// Name identifies the provider in logs and errors.
	Name() string
	// Load attempts to resolve a credential.
	Load(ctx context.Context) (*Credential, error)
}

// defaultHTTPClient is shared by the protocol providers of one loader so
// connections are pooled across calls.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// LoaderOption configures a CredentialLoader.
type LoaderOption func(*CredentialLoader)

// WithDisableEnv disables the environment provider.
func WithDisableEnv() LoaderOption {
	return func(l *CredentialLoader) { l.disableEnv = true }
}

// WithDisableProfile disables the profile provider.
func WithDisableProfile() LoaderOption {
	return func(l *CredentialLoader) { l.disableProfile = true }
}

// WithDisableWebIdentity disables the STS web identity provider.
func WithDisableWebIdentity() LoaderOption {
	return func(l *CredentialLoader) { l.disableWebIdentity = true }
}

// WithDisableIMDS disables the EC2 instance metadata provider.
func WithDisableIMDS() LoaderOption {
	return func(l *CredentialLoader) { l.disableIMDS = true }
}

// WithHTTPClient sets the HTTP client shared by the protocol providers.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *CredentialLoader) { l.client = c }
}

// WithClock sets the clock used for expiry checks and retry sleeps.
func WithClock(c clock.Clock) LoaderOption {
	return func(l *CredentialLoader) { l.clock = c }
}

// WithSTSEndpoint overrides the STS endpoint used by the web identity
// provider. Used in tests.
func WithSTSEndpoint(endpoint string) LoaderOption {
	return func(l *CredentialLoader) { l.stsEndpoint = endpoint }
}

// WithIMDSEndpoint overrides the instance metadata endpoint. Used in tests.
func WithIMDSEndpoint(endpoint string) LoaderOption {
	return func(l *CredentialLoader) { l.imdsEndpoint = endpoint }
}

// CredentialLoader resolves AWS credentials through a fixed provider chain
// and caches the result until it expires.
//
// The cache mutex is held only to copy the slot in or out, never across
// network I/O, so concurrent callers racing on a cache miss may resolve
// redundantly. The last writer wins.
type CredentialLoader struct {
	mu         sync.Mutex
	credential *Credential

	disableEnv         bool
	disableProfile     bool
	disableWebIdentity bool
	disableIMDS        bool

	stsEndpoint  string
	imdsEndpoint string

	client *http.Client
	clock  clock.Clock

	providers []Provider
}

// NewCredentialLoader builds a loader around the given config loader.
func NewCredentialLoader(cfg *ConfigLoader, opts ...LoaderOption) *CredentialLoader {
	l := &CredentialLoader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		l.client = defaultHTTPClient()
	}
	if l.clock == nil {
		l.clock = clock.WallClock
	}

	if !l.disableEnv {
		l.providers = append(l.providers, &EnvProvider{Config: cfg})
	}
	if !l.disableProfile {
		l.providers = append(l.providers, &ProfileProvider{Config: cfg})
	}
	if !l.disableWebIdentity {
		l.providers = append(l.providers, &WebIdentityProvider{
			Config:   cfg,
			Client:   l.client,
			Clock:    l.clock,
			Endpoint: l.stsEndpoint,
		})
	}
	if !l.disableIMDS {
		l.providers = append(l.providers, NewIMDSProvider(l.client, l.clock, l.imdsEndpoint))
	}

	return l
}

// Load returns a valid credential, reusing the cached one when possible.
// A nil credential with a nil error means no source is applicable.
func (l *CredentialLoader) Load(ctx context.Context) (*Credential, error) {
	l.mu.Lock()
	if l.credential.ValidAt(l.clock.Now()) {
		cred := *l.credential
		l.mu.Unlock()
		return &cred, nil
	}
	l.mu.Unlock()

	for _, p := range l.providers {
		cred, err := p.Load(ctx)
		if err != nil {
			return nil, err
		}
		if cred == nil {
			continue
		}

		log.Debug("loaded AWS credential", "provider", p.Name())

		l.mu.Lock()
		l.credential = cred
		copied := *cred
		l.mu.Unlock()
		return &copied, nil
	}

	return nil, nil
}
