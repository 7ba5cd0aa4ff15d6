package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/juju/clock"
)

const (
	defaultIMDSEndpoint = "http://169.254.169.254"

	// 21600s (6h) is the token TTL recommended by AWS. The cached token is
	// treated as expired 600s early to force a re-read well before the
	// service stops accepting it.
	imdsTokenTTLSeconds     = 21600
	imdsTokenSafetyDuration = 600 * time.Second
)

// ErrAssumeRoleUnauthorized indicates the instance role is not trusted by
// EC2. It is distinct from other IMDS failures because the fix is an IAM
// configuration change, not a retry.
var ErrAssumeRoleUnauthorized = errors.New("incorrect IMDS/IAM configuration; does this role have a trust relationship with EC2?")

// IMDSProvider resolves credentials from the EC2 instance metadata service
// using the session-oriented IMDSv2 protocol: a session token is fetched
// first (and cached across calls), then the attached role and its
// credentials are read with it.
type IMDSProvider struct {
	client   *http.Client
	clock    clock.Clock
	endpoint string

	// The token cache mutex is held only for the read or write itself,
	// never across network I/O, so concurrent expired callers may fetch
	// redundant tokens. The last writer wins.
	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewIMDSProvider returns an IMDS provider. An empty endpoint selects the
// well-known instance metadata address.
func NewIMDSProvider(client *http.Client, clk clock.Clock, endpoint string) *IMDSProvider {
	if endpoint == "" {
		endpoint = defaultIMDSEndpoint
	}
	return &IMDSProvider{
		client:   client,
		clock:    clk,
		endpoint: endpoint,
	}
}

// Name implements Provider.
func (p *IMDSProvider) Name() string { return "imds" }

// Load implements Provider. Failures are hard errors at this layer; the
// service is link-local, so they are not retried.
func (p *IMDSProvider) Load(ctx context.Context) (*Credential, error) {
	token, err := p.sessionToken(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := p.metadataGet(ctx, "/latest/meta-data/iam/security-credentials/", token)
	if err != nil {
		return nil, err
	}

	body, err := p.metadataGet(ctx, "/latest/meta-data/iam/security-credentials/"+profile, token)
	if err != nil {
		return nil, err
	}

	var sc securityCredentials
	if err := json.Unmarshal([]byte(body), &sc); err != nil {
		return nil, fmt.Errorf("parsing IMDS credential response: %w (body: %s)", err, body)
	}

	if sc.Code == "AssumeRoleUnauthorizedAccess" {
		return nil, fmt.Errorf("%w: [%s] %s", ErrAssumeRoleUnauthorized, sc.Code, sc.Message)
	}
	if sc.Code != "Success" {
		return nil, fmt.Errorf("error retrieving credentials from IMDS: %s %s", sc.Code, sc.Message)
	}

	expiration, err := time.Parse(time.RFC3339, sc.Expiration)
	if err != nil {
		return nil, fmt.Errorf("parsing IMDS credential expiration %q: %w", sc.Expiration, err)
	}

	return &Credential{
		AccessKeyID:     sc.AccessKeyID,
		SecretAccessKey: sc.SecretAccessKey,
		SessionToken:    sc.Token,
		Expiration:      expiration,
	}, nil
}

// sessionToken returns the cached IMDSv2 session token, fetching a fresh one
// when the self-imposed expiry has passed.
func (p *IMDSProvider) sessionToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	token, expiry := p.token, p.tokenExpiry
	p.mu.Unlock()

	if token != "" && expiry.After(p.clock.Now()) {
		return token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.endpoint+"/latest/api/token", http.NoBody)
	if err != nil {
		return "", fmt.Errorf("building IMDS token request: %w", err)
	}
	req.ContentLength = 0
	req.Header.Set("x-aws-ec2-metadata-token-ttl-seconds", fmt.Sprintf("%d", imdsTokenTTLSeconds))

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting IMDS token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading IMDS token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request to EC2 metadata service failed with status %d: %s", resp.StatusCode, string(body))
	}

	token = string(body)
	expiry = p.clock.Now().Add(imdsTokenTTLSeconds*time.Second - imdsTokenSafetyDuration)

	p.mu.Lock()
	p.token, p.tokenExpiry = token, expiry
	p.mu.Unlock()

	return token, nil
}

// metadataGet performs one authenticated metadata read, returning the plain
// text body.
func (p *IMDSProvider) metadataGet(ctx context.Context, path, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+path, nil)
	if err != nil {
		return "", fmt.Errorf("building IMDS request: %w", err)
	}
	req.Header.Set("x-aws-ec2-metadata-token", token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting EC2 metadata: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading EC2 metadata response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request to EC2 metadata service failed with status %d: %s", resp.StatusCode, string(body))
	}

	return string(body), nil
}

type securityCredentials struct {
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	Token           string `json:"Token"`
	Expiration      string `json:"Expiration"`

	Code    string `json:"Code"`
	Message string `json:"Message"`
}
