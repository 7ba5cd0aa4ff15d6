package aws

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/reqsign/reqsign/internal/log"
)

const (
	defaultSTSEndpoint = "https://sts.amazonaws.com"
	stsAPIVersion      = "2011-06-15"

	// STS may need several seconds to reach consistency after an identity
	// token is issued, so failed exchanges are retried with backoff:
	// 1s -> 2s -> 4s -> 8s.
	webIdentityAttempts  = 5
	webIdentityBaseDelay = time.Second
	webIdentityMaxDelay  = 8 * time.Second
)

// WebIdentityProvider exchanges a local identity token and a role ARN for
// temporary credentials via STS AssumeRoleWithWebIdentity.
//
// Unlike the other providers it swallows its own failures: when every retry
// attempt is exhausted it logs a warning and reports itself inapplicable so
// the chain can move on.
type WebIdentityProvider struct {
	Config *ConfigLoader
	Client *http.Client
	Clock  clock.Clock

	// Endpoint overrides the STS endpoint. Used in tests.
	Endpoint string

	// RetryDelay and RetryMaxDelay override the backoff window. Used in
	// tests to avoid real waiting.
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration
}

// Name implements Provider.
func (p *WebIdentityProvider) Name() string { return "web_identity" }

// Load implements Provider.
func (p *WebIdentityProvider) Load(ctx context.Context) (*Credential, error) {
	p.Config.LoadViaEnv()

	tokenFile := p.Config.WebIdentityTokenFile()
	roleARN := p.Config.RoleARN()
	if tokenFile == "" || roleARN == "" {
		return nil, nil
	}

	baseDelay := p.RetryDelay
	if baseDelay <= 0 {
		baseDelay = webIdentityBaseDelay
	}
	maxDelay := p.RetryMaxDelay
	if maxDelay <= 0 {
		maxDelay = webIdentityMaxDelay
	}

	var cred *Credential
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			var err error
			cred, err = p.exchange(ctx, tokenFile, roleARN)
			return err
		},
		Attempts:    webIdentityAttempts,
		Delay:       baseDelay,
		MaxDelay:    maxDelay,
		BackoffFunc: retry.ExpBackoff(baseDelay, maxDelay, 2.0, true),
		Clock:       p.Clock,
		Stop:        ctx.Done(),
	})
	if err != nil {
		log.Warn("load credential via assume role with web identity failed", "error", err)
		return nil, nil
	}

	return cred, nil
}

// exchange performs one AssumeRoleWithWebIdentity round trip. The token file
// is re-read on every attempt so rotated tokens are picked up.
func (p *WebIdentityProvider) exchange(ctx context.Context, tokenFile, roleARN string) (*Credential, error) {
	token, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("reading web identity token file: %w", err)
	}

	query := url.Values{}
	query.Set("Action", "AssumeRoleWithWebIdentity")
	query.Set("RoleArn", roleARN)
	query.Set("WebIdentityToken", string(token))
	query.Set("Version", stsAPIVersion)
	query.Set("RoleSessionName", p.Config.RoleSessionName())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint()+"/?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building STS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling STS: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading STS response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request to AWS STS failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed assumeRoleWithWebIdentityResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing STS response: %w (body: %s)", err, string(body))
	}

	stsCred := parsed.Result.Credentials
	if stsCred.AccessKeyID == "" || stsCred.SecretAccessKey == "" || stsCred.SessionToken == "" || stsCred.Expiration == "" {
		return nil, fmt.Errorf("STS response is missing credential fields: %s", string(body))
	}

	expiration, err := time.Parse(time.RFC3339, stsCred.Expiration)
	if err != nil {
		return nil, fmt.Errorf("parsing STS credential expiration %q: %w", stsCred.Expiration, err)
	}

	cred := &Credential{
		AccessKeyID:     stsCred.AccessKeyID,
		SecretAccessKey: stsCred.SecretAccessKey,
		SessionToken:    stsCred.SessionToken,
		Expiration:      expiration,
	}
	if err := cred.check(); err != nil {
		return nil, err
	}

	return cred, nil
}

// endpoint picks the STS endpoint, honoring AWS_STS_REGIONAL_ENDPOINTS.
func (p *WebIdentityProvider) endpoint() string {
	if p.Endpoint != "" {
		return p.Endpoint
	}
	if p.Config.STSRegionalEndpoints() == "regional" {
		if region := p.Config.Region(); region != "" {
			return fmt.Sprintf("https://sts.%s.amazonaws.com", region)
		}
	}
	return defaultSTSEndpoint
}

type assumeRoleWithWebIdentityResponse struct {
	XMLName xml.Name                        `xml:"AssumeRoleWithWebIdentityResponse"`
	Result  assumeRoleWithWebIdentityResult `xml:"AssumeRoleWithWebIdentityResult"`
}

type assumeRoleWithWebIdentityResult struct {
	Credentials stsCredentials `xml:"Credentials"`
}

type stsCredentials struct {
	AccessKeyID     string `xml:"AccessKeyId"`
	SecretAccessKey string `xml:"SecretAccessKey"`
	SessionToken    string `xml:"SessionToken"`
	Expiration      string `xml:"Expiration"`
}
