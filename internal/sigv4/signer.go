// Package sigv4 signs HTTP requests with AWS Signature Version 4 using a
// resolved credential. Only header-based signing is implemented; presigned
// URLs are not needed by any caller.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/reqsign/reqsign/internal/aws"
)

const (
	algorithm          = "AWS4-HMAC-SHA256"
	timeFormatDateTime = "20060102T150405Z"
	timeFormatDate     = "20060102"
	requestTypeAWS4    = "aws4_request"

	// Hash of the empty payload, used when a request has no body.
	hashEmptyPayload = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// Headers never included in the signature.
var ignoredHeaders = map[string]struct{}{
	"Authorization":   {},
	"User-Agent":      {},
	"X-Amzn-Trace-Id": {},
}

// Signer signs requests for one service in one region.
type Signer struct {
	Region  string
	Service string
}

// NewSigner returns a signer for the given region and service.
func NewSigner(region, service string) *Signer {
	return &Signer{Region: region, Service: service}
}

// Sign adds X-Amz-Date, X-Amz-Security-Token (for temporary credentials) and
// Authorization headers to the request. The request is modified in place.
func (s *Signer) Sign(req *http.Request, body io.ReadSeeker, cred *aws.Credential, signTime time.Time) error {
	if cred == nil || cred.AccessKeyID == "" || cred.SecretAccessKey == "" {
		return fmt.Errorf("signing requires a resolved credential")
	}

	signTime = signTime.UTC()
	req.Header.Set("X-Amz-Date", signTime.Format(timeFormatDateTime))
	if cred.SessionToken != "" {
		req.Header.Set("X-Amz-Security-Token", cred.SessionToken)
	}

	bodyHash, err := hashPayload(body)
	if err != nil {
		return err
	}

	scope := strings.Join([]string{
		signTime.Format(timeFormatDate),
		s.Region,
		s.Service,
		requestTypeAWS4,
	}, "/")

	signedHeaders, canonicalHeaders := canonicalizeHeaders(req)
	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalURI(req),
		canonicalQuery(req),
		canonicalHeaders,
		signedHeaders,
		bodyHash,
	}, "\n")

	stringToSign := strings.Join([]string{
		algorithm,
		signTime.Format(timeFormatDateTime),
		scope,
		hashHex([]byte(canonicalRequest)),
	}, "\n")

	key := deriveSigningKey(cred.SecretAccessKey, signTime, s.Region, s.Service)
	signature := hex.EncodeToString(hmacSHA256(key, []byte(stringToSign)))

	req.Header.Set("Authorization", fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, cred.AccessKeyID, scope, signedHeaders, signature,
	))

	return nil
}

// deriveSigningKey derives the HMAC signing key per the Signature Version 4
// specification: date, region, service, then the request type.
func deriveSigningKey(secret string, t time.Time, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), []byte(t.UTC().Format(timeFormatDate)))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte(requestTypeAWS4))
}

func canonicalURI(req *http.Request) string {
	path := req.URL.EscapedPath()
	if path == "" {
		return "/"
	}
	return path
}

func canonicalQuery(req *http.Request) string {
	// Encode sorts by key; SigV4 wants spaces as %20, not '+'.
	return strings.ReplaceAll(req.URL.Query().Encode(), "+", "%20")
}

// canonicalizeHeaders returns the signed header list and the canonical
// header block, both over every request header except the ignored set.
func canonicalizeHeaders(req *http.Request) (signedHeaders, canonicalHeaders string) {
	headers := map[string][]string{
		"host": {hostOf(req)},
	}
	for name, values := range req.Header {
		if _, ok := ignoredHeaders[http.CanonicalHeaderKey(name)]; ok {
			continue
		}
		headers[strings.ToLower(name)] = values
	}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var block strings.Builder
	for _, name := range names {
		trimmed := make([]string, len(headers[name]))
		for i, v := range headers[name] {
			trimmed[i] = strings.TrimSpace(v)
		}
		block.WriteString(name)
		block.WriteByte(':')
		block.WriteString(strings.Join(trimmed, ","))
		block.WriteByte('\n')
	}

	return strings.Join(names, ";"), block.String()
}

func hostOf(req *http.Request) string {
	if req.Host != "" {
		return req.Host
	}
	return req.URL.Host
}

func hashPayload(body io.ReadSeeker) (string, error) {
	if body == nil {
		return hashEmptyPayload, nil
	}

	start, err := body.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", fmt.Errorf("seeking request body: %w", err)
	}
	h := sha256.New()
	if _, err := io.Copy(h, body); err != nil {
		return "", fmt.Errorf("hashing request body: %w", err)
	}
	if _, err := body.Seek(start, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding request body: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	_, _ = h.Write(data)
	return h.Sum(nil)
}
