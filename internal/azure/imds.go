package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const (
	defaultMSIEndpoint = "http://169.254.169.254/metadata/identity/oauth2/token"
	msiAPIVersion      = "2019-08-01"

	// DefaultResource is the audience for Azure Storage tokens.
	DefaultResource = "https://storage.azure.com/"
)

// ManagedIdentityProvider fetches a bearer token from the Azure instance
// metadata service for the deployment environment's managed identity. It
// works in Azure VMs, App Service and Azure Functions.
//
// Failures are fatal at this layer and are not retried.
type ManagedIdentityProvider struct {
	Config *Config
	Client *http.Client
}

// Name identifies the provider in logs and errors.
func (p *ManagedIdentityProvider) Name() string { return "managed_identity" }

// Load requests a token and returns it as a bearer credential.
//
// The response carries an expires_on field (a string-encoded unix epoch);
// it is intentionally not interpreted here, so bearer credentials carry no
// expiry and are cached until the loader is replaced.
func (p *ManagedIdentityProvider) Load(ctx context.Context) (*Credential, error) {
	endpoint := p.Config.Endpoint
	if endpoint == "" {
		endpoint = defaultMSIEndpoint
	}
	resource := p.Config.Resource
	if resource == "" {
		resource = DefaultResource
	}

	query := url.Values{}
	query.Set("api-version", msiAPIVersion)
	query.Set("resource", resource)
	if id := p.Config.Identity; id != nil {
		query.Set(string(id.Kind), id.Value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building managed identity request: %w", err)
	}
	req.Header.Set("metadata", "true")
	if p.Config.Secret != "" {
		req.Header.Set("x-identity-header", p.Config.Secret)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting managed identity token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading managed identity response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("managed identity token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var token msiTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("parsing managed identity response: %w (body: %s)", err, string(body))
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("managed identity response is missing access_token: %s", string(body))
	}

	return NewBearerToken(token.AccessToken), nil
}

type msiTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Resource    string `json:"resource"`
}
