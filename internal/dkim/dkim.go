// Package dkim builds and validates DKIM TXT record values from a
// caller-supplied public key. Key generation is out of scope.
package dkim

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/dean-jl/dnsengine/internal/model"
)

const (
	DefaultSelector = "google"
	maxChunkBytes   = 255
	warnRecordBytes = 512
)

var domainRegexp = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+$`)

// Record is a built DKIM record ready for provisioning.
type Record struct {
	Name              string // selector._domainkey.domain
	Value             string // v=DKIM1; k=rsa; p=<key>
	RequiresSplitting bool
	Chunks            []string // ≤255-char substrings, present when splitting is requested
	Warnings          []model.Issue
	Errors            []model.Issue
}

// Options configures Build.
type Options struct {
	Selector string // defaults to DefaultSelector
	KeyType  string // "rsa" (default) or "ed25519"
	Split    bool   // emit Chunks when the value exceeds 255 chars
}

// Build constructs the DKIM record name/value for domain from a
// caller-supplied base64 public key.
func Build(domain, publicKey string, opts Options) Record {
	selector := opts.Selector
	if selector == "" {
		selector = DefaultSelector
	}
	keyType := opts.KeyType
	if keyType == "" {
		keyType = "rsa"
	}

	key := stripWhitespace(publicKey)

	rec := Record{
		Name:  fmt.Sprintf("%s._domainkey.%s", selector, domain),
		Value: fmt.Sprintf("v=DKIM1; k=%s; p=%s", keyType, key),
	}

	if !domainRegexp.MatchString(domain) {
		rec.Errors = append(rec.Errors, model.NewValidationIssue("domain", "domain %q is not a valid hostname", domain))
	}
	if key == "" {
		rec.Errors = append(rec.Errors, model.NewValidationIssue("publicKey", "public key is empty after whitespace stripping"))
	} else if _, err := base64.StdEncoding.DecodeString(key); err != nil {
		rec.Errors = append(rec.Errors, model.NewValidationIssue("publicKey", "public key is not valid base64: %v", err))
	}

	if len(rec.Value) > warnRecordBytes {
		rec.Warnings = append(rec.Warnings, model.NewValidationIssue("record", "dkim record is %d bytes, unusually large", len(rec.Value)))
	}
	if keyType == "rsa" {
		if bits := estimateRSABits(key); bits != 0 && bits != 1024 && bits != 2048 {
			rec.Warnings = append(rec.Warnings, model.NewValidationIssue("publicKey", "unusual rsa key length (~%d bits)", bits))
		}
	}

	rec.RequiresSplitting = len(rec.Value) > maxChunkBytes
	if rec.RequiresSplitting && opts.Split {
		rec.Chunks = splitChunks(rec.Value)
	} else if rec.RequiresSplitting && len(rec.Errors) == 0 {
		rec.Errors = append(rec.Errors, model.NewLimitIssue("record", "dkim record is %d chars, exceeds 255-char string limit and splitting is disabled", len(rec.Value)))
	}

	return rec
}

func stripWhitespace(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitChunks divides value into ≤255-char substrings whose
// concatenation equals the input, grounded on the teacher's SPF
// chunker (internal/spf/split.go) but applied to a single string
// rather than a mechanism list.
func splitChunks(value string) []string {
	var chunks []string
	for len(value) > maxChunkBytes {
		chunks = append(chunks, value[:maxChunkBytes])
		value = value[maxChunkBytes:]
	}
	if len(value) > 0 {
		chunks = append(chunks, value)
	}
	return chunks
}

// estimateRSABits roughly estimates key size from the base64-decoded
// DER length; a precise bit count would require ASN.1 parsing, which
// is out of scope for a formatter.
func estimateRSABits(key string) int {
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return 0
	}
	// A DER-encoded RSA public key is roughly keyBits/8 + ~40 bytes of
	// ASN.1 overhead; round to the nearest common size.
	bytes := len(decoded)
	switch {
	case bytes > 0 && bytes < 200:
		return 1024
	case bytes >= 200 && bytes < 500:
		return 2048
	case bytes >= 500:
		return 4096
	default:
		return 0
	}
}
