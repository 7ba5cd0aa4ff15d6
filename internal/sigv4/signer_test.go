package sigv4

import (
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqsign/reqsign/internal/aws"
)

// Known-good vector from the AWS Signature Version 4 test suite
// (get-vanilla).
func TestSignerGetVanilla(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://example.amazonaws.com/", nil)
	require.NoError(t, err)

	signTime, err := time.Parse(timeFormatDateTime, "20150830T123600Z")
	require.NoError(t, err)

	cred := &aws.Credential{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
	}

	signer := NewSigner("us-east-1", "service")
	require.NoError(t, signer.Sign(req, nil, cred, signTime))

	assert.Equal(t, "20150830T123600Z", req.Header.Get("X-Amz-Date"))
	assert.Equal(t,
		"AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20150830/us-east-1/service/aws4_request, "+
			"SignedHeaders=host;x-amz-date, "+
			"Signature=5fa00fa31553b73ebf1942676e86291e8372ff2a2260956d9b8aae1d763fbf31",
		req.Header.Get("Authorization"))
}

// Known-good derived key from the AWS Signature Version 4 documentation.
func TestDeriveSigningKey(t *testing.T) {
	signTime, err := time.Parse(timeFormatDate, "20150830")
	require.NoError(t, err)

	key := deriveSigningKey("wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY", signTime, "us-east-1", "iam")

	assert.Equal(t,
		"c4afb1cc5771d871763a393e44b703571b55cc28424d1a5e86da6ed3c154a4b9",
		hex.EncodeToString(key))
}

func TestSignerAddsSecurityToken(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://example.amazonaws.com/", nil)
	require.NoError(t, err)

	cred := &aws.Credential{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		SessionToken:    "session-token",
	}

	signer := NewSigner("us-east-1", "s3")
	require.NoError(t, signer.Sign(req, nil, cred, time.Now()))

	assert.Equal(t, "session-token", req.Header.Get("X-Amz-Security-Token"))
	assert.Contains(t, req.Header.Get("Authorization"), "x-amz-security-token")
}

func TestSignerRequiresCredential(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://example.amazonaws.com/", nil)
	require.NoError(t, err)

	signer := NewSigner("us-east-1", "s3")
	assert.Error(t, signer.Sign(req, nil, nil, time.Now()))
	assert.Error(t, signer.Sign(req, nil, &aws.Credential{AccessKeyID: "ak"}, time.Now()))
}
