package azure

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/reqsign/reqsign/internal/log"
)

// Loader resolves Azure credentials and caches the result. Azure credentials
// carry no expiry at this layer, so a cached credential is reused for the
// lifetime of the loader.
//
// The cache mutex is held only to copy the slot in or out, never across
// network I/O.
type Loader struct {
	config *Config
	client *http.Client

	mu         sync.Mutex
	credential *Credential
}

// NewLoader returns a loader for the given config.
func NewLoader(config *Config) *Loader {
	return &Loader{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the transport client. Used in tests.
func (l *Loader) WithHTTPClient(c *http.Client) *Loader {
	l.client = c
	return l
}

// Load resolves a credential from static configuration: a SAS token when one
// is configured, else a shared key pair when both halves are present, else
// nil. It performs no I/O and never fails.
func (l *Loader) Load(ctx context.Context) (*Credential, error) {
	if cred := l.cached(); cred != nil {
		return cred, nil
	}

	cred := l.loadViaConfig()
	if cred == nil {
		return nil, nil
	}

	log.Debug("loaded Azure credential", "kind", cred.Kind)
	return l.store(cred), nil
}

// LoadViaIMDS resolves a bearer token through the managed identity endpoint.
// Unlike Load it performs network I/O and surfaces failures to the caller.
func (l *Loader) LoadViaIMDS(ctx context.Context) (*Credential, error) {
	if cred := l.cached(); cred != nil {
		return cred, nil
	}

	provider := &ManagedIdentityProvider{Config: l.config, Client: l.client}
	cred, err := provider.Load(ctx)
	if err != nil {
		return nil, err
	}

	log.Debug("loaded Azure credential", "kind", cred.Kind, "provider", provider.Name())
	return l.store(cred), nil
}

func (l *Loader) loadViaConfig() *Credential {
	if l.config.SASToken != "" {
		return NewSharedAccessSignature(l.config.SASToken)
	}
	if l.config.AccountName != "" && l.config.AccountKey != "" {
		return NewSharedKey(l.config.AccountName, l.config.AccountKey)
	}
	return nil
}

func (l *Loader) cached() *Credential {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.credential == nil {
		return nil
	}
	cred := *l.credential
	return &cred
}

func (l *Loader) store(cred *Credential) *Credential {
	l.mu.Lock()
	l.credential = cred
	copied := *cred
	l.mu.Unlock()
	return &copied
}
