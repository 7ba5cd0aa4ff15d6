package azure

// IdentityKind selects which managed identity a token is requested for.
type IdentityKind string

const (
	// IdentityObjectID selects a user-assigned identity by object id.
	IdentityObjectID IdentityKind = "object_id"
	// IdentityClientID selects a user-assigned identity by client id.
	IdentityClientID IdentityKind = "client_id"
	// IdentityResourceID selects a user-assigned identity by ARM resource id.
	IdentityResourceID IdentityKind = "msi_res_id"
)

// Identity is the managed identity selector. Only one identity may be named
// per token request, so the selector is a single tagged value; setting a new
// one replaces the previous selection entirely.
type Identity struct {
	Kind  IdentityKind
	Value string
}

// Config holds the static configuration for the Azure credential chain.
// Fields are fixed after construction.
type Config struct {
	// AccountName and AccountKey configure a shared key credential.
	AccountName string
	AccountKey  string

	// SASToken configures a shared access signature credential. It takes
	// precedence over the shared key pair.
	SASToken string

	// Endpoint overrides the managed identity metadata endpoint.
	Endpoint string

	// Secret, when set, is sent as the x-identity-header value. App Service
	// style endpoints require it.
	Secret string

	// Resource is the audience tokens are requested for. Defaults to the
	// Azure Storage resource.
	Resource string

	// Identity selects a user-assigned managed identity. Nil means the
	// system-assigned identity.
	Identity *Identity
}

// WithObjectID returns a copy of the config selecting the identity by object
// id, discarding any previous selector.
func (c Config) WithObjectID(objectID string) Config {
	c.Identity = &Identity{Kind: IdentityObjectID, Value: objectID}
	return c
}

// WithClientID returns a copy of the config selecting the identity by client
// id, discarding any previous selector.
func (c Config) WithClientID(clientID string) Config {
	c.Identity = &Identity{Kind: IdentityClientID, Value: clientID}
	return c
}

// WithResourceID returns a copy of the config selecting the identity by ARM
// resource id, discarding any previous selector.
func (c Config) WithResourceID(resourceID string) Config {
	c.Identity = &Identity{Kind: IdentityResourceID, Value: resourceID}
	return c
}
