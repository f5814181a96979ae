package bedrock

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	// AWS Signature V4 constants
	algorithm       = "AWS4-HMAC-SHA256"
	serviceName     = "bedrock"
	requestType     = "aws4_request"
	timeFormat      = "20060102T150405Z"
	shortTimeFormat = "20060102"

	// Headers
	authorizationHeader = "Authorization"
	dateHeader          = "X-Amz-Date"
	securityTokenHeader = "X-Amz-Security-Token" //nolint:gosec // G101: AWS header name, not a credential
	contentSha256Header = "X-Amz-Content-Sha256"
)

// Signer handles AWS Signature V4 signing for Bedrock requests
type Signer struct {
	credentials Credentials
	region      string
}

// NewSigner creates a new AWS Signature V4 signer
func NewSigner(credentials Credentials, region string) *Signer {
	return &Signer{credentials: credentials, region: region}
}

// SignRequest signs an HTTP request using AWS Signature V4
// It modifies the request in place by adding authentication headers
func (s *Signer) SignRequest(req *http.Request) error {
	return s.SignRequestWithTime(req, time.Now().UTC())
}

// SignRequestWithTime signs a request with a specific timestamp (useful for testing)
func (s *Signer) SignRequestWithTime(req *http.Request, t time.Time) error {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return fmt.Errorf("failed to read request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	payloadHash := hashPayload(bodyBytes)

	amzDate := t.Format(timeFormat)
	req.Header.Set(dateHeader, amzDate)
	req.Header.Set(contentSha256Header, payloadHash)
	if s.credentials.SessionToken != "" {
		req.Header.Set(securityTokenHeader, s.credentials.SessionToken)
	}
	if req.Host == "" {
		req.Host = req.URL.Host
	}

	canonicalRequest := s.buildCanonicalRequest(req, payloadHash)
	credentialScope := s.buildCredentialScope(t)
	stringToSign := buildStringToSign(canonicalRequest, amzDate, credentialScope)
	signature := s.calculateSignature(stringToSign, t)

	_, signedHeaders := buildCanonicalHeaders(req)
	req.Header.Set(authorizationHeader, fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm,
		s.credentials.AccessKeyID,
		credentialScope,
		signedHeaders,
		signature,
	))
	return nil
}

func hashPayload(payload []byte) string {
	hash := sha256.Sum256(payload)
	return hex.EncodeToString(hash[:])
}

// buildCanonicalRequest creates the canonical request string. The path is
// encoded a second time on top of its wire form, as non-S3 services expect.
func (s *Signer) buildCanonicalRequest(req *http.Request, payloadHash string) string {
	uri := req.URL.EscapedPath()
	if uri == "" {
		uri = "/"
	}

	canonicalHeaders, signedHeaders := buildCanonicalHeaders(req)

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s",
		req.Method,
		uriEncode(uri, false),
		buildCanonicalQueryString(req.URL.Query()),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	)
}

func buildCanonicalQueryString(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		vals := values[k]
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, uriEncode(k, true)+"="+uriEncode(v, true))
		}
	}
	return strings.Join(parts, "&")
}

// buildCanonicalHeaders creates canonical headers and signed headers list
func buildCanonicalHeaders(req *http.Request) (canonical, signed string) {
	headers := make(map[string][]string)
	for k, v := range req.Header {
		headers[strings.ToLower(k)] = v
	}
	headers["host"] = []string{req.Host}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	canonicalParts := make([]string, 0, len(keys))
	for _, k := range keys {
		trimmed := make([]string, 0, len(headers[k]))
		for _, v := range headers[k] {
			trimmed = append(trimmed, strings.TrimSpace(v))
		}
		canonicalParts = append(canonicalParts, k+":"+strings.Join(trimmed, ","))
	}

	return strings.Join(canonicalParts, "\n") + "\n", strings.Join(keys, ";")
}

func (s *Signer) buildCredentialScope(t time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.Format(shortTimeFormat), s.region, serviceName, requestType)
}

func buildStringToSign(canonicalRequest, amzDate, credentialScope string) string {
	hash := sha256.Sum256([]byte(canonicalRequest))
	return fmt.Sprintf("%s\n%s\n%s\n%s", algorithm, amzDate, credentialScope, hex.EncodeToString(hash[:]))
}

// calculateSignature computes the AWS Signature V4 signature
func (s *Signer) calculateSignature(stringToSign string, t time.Time) string {
	kSecret := []byte("AWS4" + s.credentials.SecretAccessKey)
	kDate := hmacSHA256(kSecret, []byte(t.Format(shortTimeFormat)))
	kRegion := hmacSHA256(kDate, []byte(s.region))
	kService := hmacSHA256(kRegion, []byte(serviceName))
	kSigning := hmacSHA256(kService, []byte(requestType))
	return hex.EncodeToString(hmacSHA256(kSigning, []byte(stringToSign)))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// uriEncode encodes a URI component according to AWS requirements
func uriEncode(s string, encodeSlash bool) string {
	var buf bytes.Buffer
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c, encodeSlash) {
			fmt.Fprintf(&buf, "%%%02X", c)
		} else {
			buf.WriteByte(c)
		}
	}
	return buf.String()
}

// shouldEscape reports whether c is outside the RFC 3986 unreserved set
func shouldEscape(c byte, encodeSlash bool) bool {
	if 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' {
		return false
	}
	switch c {
	case '-', '_', '.', '~':
		return false
	case '/':
		return encodeSlash
	}
	return true
}
