// Package credential decodes the claims segment of a bearer credential.
//
// Decoding establishes structure only. The signature is never checked here; the
// backend verifies it on every request, and client-side role gating is a navigation
// convenience rather than a security boundary.
package credential

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
)

// ErrDecode is the single failure returned for any credential that cannot be decoded.
var ErrDecode = errors.New("credential could not be decoded")

var urlSafeToStd = strings.NewReplacer("-", "+", "_", "/")

// Decode extracts and parses the claims segment of token.
// Every failure is reported as an error wrapping ErrDecode.
func Decode(token string) (domainauth.Claims, error) {
	fields, err := DecodeFields(token)
	if err != nil {
		return domainauth.Claims{}, err
	}
	return claimsFromFields(fields), nil
}

// DecodeFields returns the raw claims object.
func DecodeFields(token string) (map[string]any, error) {
	segments := strings.Split(token, ".")
	if len(segments) < 2 {
		return nil, fmt.Errorf("%w: missing claims segment", ErrDecode)
	}

	raw, err := decodeSegment(segments[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: claims are not valid UTF-8", ErrDecode)
	}

	var fields map[string]any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %w", ErrDecode, err)
	}
	// More reports false for a stray closing bracket, so read one more token instead.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after claims", ErrDecode)
	}
	if fields == nil {
		// JSON null decodes into a nil map without error.
		return nil, fmt.Errorf("%w: claims are not an object", ErrDecode)
	}
	return fields, nil
}

// decodeSegment base64-decodes one segment after mapping the URL-safe alphabet to
// the standard one. Padding is optional, but when present it must complete a
// quantum: at most two '=' and only on a length that is a multiple of four.
func decodeSegment(seg string) ([]byte, error) {
	std := urlSafeToStd.Replace(seg)
	if len(std)%4 == 0 {
		std = strings.TrimSuffix(std, "=")
		std = strings.TrimSuffix(std, "=")
	}
	b, err := base64.RawStdEncoding.DecodeString(std)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return b, nil
}

func claimsFromFields(fields map[string]any) domainauth.Claims {
	c := domainauth.Claims{Fields: fields}
	if exp, ok := numericClaim(fields["exp"]); ok {
		c.Exp = exp
		c.HasExp = true
	}
	if ut, ok := fields["userType"].(string); ok {
		c.UserType = domainauth.Role(ut)
	}
	return c
}

// numericClaim accepts JSON numbers only. Fractional seconds are truncated.
func numericClaim(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64, true
	}
	if f <= math.MinInt64 {
		return math.MinInt64, true
	}
	return int64(f), true
}
