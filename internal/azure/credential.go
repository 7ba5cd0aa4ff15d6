// Package azure resolves Azure Storage credentials from static configuration
// or the instance metadata service's managed identity endpoint.
package azure

// CredentialKind discriminates the credential variants.
type CredentialKind string

const (
	// KindSharedKey is an account name plus account key pair.
	KindSharedKey CredentialKind = "shared_key"
	// KindSharedAccessSignature is a pre-issued SAS token.
	KindSharedAccessSignature CredentialKind = "sas"
	// KindBearerToken is an OAuth bearer token from managed identity.
	KindBearerToken CredentialKind = "bearer"
)

// Credential is a tagged Azure credential. Exactly the fields implied by
// Kind are set. Expiry is not tracked at this layer.
type Credential struct {
	Kind CredentialKind

	// AccountName and AccountKey are set for KindSharedKey.
	AccountName string
	AccountKey  string

	// SASToken is set for KindSharedAccessSignature.
	SASToken string

	// BearerToken is set for KindBearerToken.
	BearerToken string
}

// NewSharedKey returns a shared key credential.
func NewSharedKey(account, key string) *Credential {
	return &Credential{Kind: KindSharedKey, AccountName: account, AccountKey: key}
}

// NewSharedAccessSignature returns a SAS credential.
func NewSharedAccessSignature(token string) *Credential {
	return &Credential{Kind: KindSharedAccessSignature, SASToken: token}
}

// NewBearerToken returns a bearer token credential.
func NewBearerToken(token string) *Credential {
	return &Credential{Kind: KindBearerToken, BearerToken: token}
}
