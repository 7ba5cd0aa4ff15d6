package aws

// Environment variables consumed by the AWS credential chain.
const (
	EnvAccessKeyID           = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey       = "AWS_SECRET_ACCESS_KEY"
	EnvSessionToken          = "AWS_SESSION_TOKEN"
	EnvRegion                = "AWS_REGION"
	EnvProfile               = "AWS_PROFILE"
	EnvConfigFile            = "AWS_CONFIG_FILE"
	EnvSharedCredentialsFile = "AWS_SHARED_CREDENTIALS_FILE"
	EnvWebIdentityTokenFile  = "AWS_WEB_IDENTITY_TOKEN_FILE"
	EnvRoleARN               = "AWS_ROLE_ARN"
	EnvRoleSessionName       = "AWS_ROLE_SESSION_NAME"
	EnvSTSRegionalEndpoints  = "AWS_STS_REGIONAL_ENDPOINTS"
)

const (
	// DefaultProfile is used when AWS_PROFILE is not set.
	DefaultProfile = "default"
	// DefaultRoleSessionName is used when AWS_ROLE_SESSION_NAME is not set.
	DefaultRoleSessionName = "reqsign"
)
