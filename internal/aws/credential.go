// Package aws resolves AWS credentials from the process environment, shared
// profile files, STS AssumeRoleWithWebIdentity and the EC2 instance metadata
// service, in that order.
package aws

import (
	"fmt"
	"time"
)

// Credential holds a resolved set of AWS credentials.
type Credential struct {
	AccessKeyID     string
	SecretAccessKey string
	// SessionToken is set for temporary credentials only.
	SessionToken string
	// Expiration is zero for long-lived credentials.
	Expiration time.Time
}

// ValidAt reports whether the credential is usable at the given time.
// Credentials without an expiration never expire.
func (c *Credential) ValidAt(now time.Time) bool {
	if c == nil {
		return false
	}
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return false
	}
	return c.Expiration.IsZero() || c.Expiration.After(now)
}

// check verifies that a freshly resolved credential is complete.
func (c *Credential) check() error {
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return fmt.Errorf("credential is incomplete: access key id or secret missing")
	}
	return nil
}
