package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	roleAuth "github.com/MrEthical07/roleAuth"
)

const (
	// DefaultCookieName is the renewal cookie read when Options.CookieName is empty.
	DefaultCookieName = "refreshToken"
	// DefaultRenewalHeader carries a renewal token for clients without cookies.
	DefaultRenewalHeader = "X-Refresh-Token"
	// DefaultMaxBodyBytes caps how much of a JSON body is buffered for extraction.
	DefaultMaxBodyBytes int64 = 1 << 20

	bodyField = "refreshToken"
)

// Options configures credential extraction.
type Options struct {
	CookieName    string
	RenewalHeader string
	MaxBodyBytes  int64
}

func (o Options) normalize() Options {
	if o.CookieName == "" {
		o.CookieName = DefaultCookieName
	}
	if o.RenewalHeader == "" {
		o.RenewalHeader = DefaultRenewalHeader
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return o
}

// credentialSource reads one place a credential may live. present is false
// when the source is simply absent; err is set when it is present but unusable.
type credentialSource struct {
	name string
	kind roleAuth.CredentialKind
	read func(r *http.Request, opts Options) (token string, present bool, err error)
}

// credentialSources is the precedence order. The first present source wins.
var credentialSources = []credentialSource{
	{name: "authorization", kind: roleAuth.CredentialAccess, read: fromAuthorization},
	{name: "cookie", kind: roleAuth.CredentialRenewal, read: fromCookie},
	{name: "header", kind: roleAuth.CredentialRenewal, read: fromRenewalHeader},
	{name: "body", kind: roleAuth.CredentialRenewal, read: fromBody},
}

// ExtractCredential walks the sources in order:
//
//  1. Authorization: Bearer <token> (access, supervisor branch)
//  2. renewal cookie (renewal, recruiter branch)
//  3. renewal header
//  4. JSON body field "refreshToken"
//
// A present but malformed Authorization header is rejected with
// [roleAuth.ErrInvalidToken] rather than falling through. With no source
// present it returns [roleAuth.ErrNoCredential]. A consumed body is restored
// so downstream handlers can read it again.
func ExtractCredential(r *http.Request, opts Options) (roleAuth.Credential, error) {
	opts = opts.normalize()
	for _, src := range credentialSources {
		token, present, err := src.read(r, opts)
		if err != nil {
			return roleAuth.Credential{}, err
		}
		if present {
			return roleAuth.Credential{Kind: src.kind, Token: token}, nil
		}
	}
	return roleAuth.Credential{}, roleAuth.ErrNoCredential
}

// BearerToken returns the access token from the Authorization header.
// Missing headers yield ErrNoCredential, malformed ones ErrInvalidToken.
func BearerToken(r *http.Request) (string, error) {
	token, present, err := fromAuthorization(r, Options{})
	if err != nil {
		return "", err
	}
	if !present {
		return "", roleAuth.ErrNoCredential
	}
	return token, nil
}

// RenewalToken returns a renewal token from cookie, header or body, ignoring
// the Authorization header.
func RenewalToken(r *http.Request, opts Options) (string, error) {
	opts = opts.normalize()
	for _, src := range credentialSources {
		if src.kind != roleAuth.CredentialRenewal {
			continue
		}
		token, present, err := src.read(r, opts)
		if err != nil {
			return "", err
		}
		if present {
			return token, nil
		}
	}
	return "", roleAuth.ErrNoCredential
}

func fromAuthorization(r *http.Request, _ Options) (string, bool, error) {
	values := r.Header.Values("Authorization")
	if len(values) == 0 {
		return "", false, nil
	}
	if len(values) > 1 {
		return "", true, roleAuth.ErrInvalidToken
	}
	token, ok := bearerToken(values[0])
	if !ok {
		return "", true, roleAuth.ErrInvalidToken
	}
	return token, true, nil
}

func bearerToken(value string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func fromCookie(r *http.Request, opts Options) (string, bool, error) {
	c, err := r.Cookie(opts.CookieName)
	if err != nil || c.Value == "" {
		return "", false, nil
	}
	return c.Value, true, nil
}

func fromRenewalHeader(r *http.Request, opts Options) (string, bool, error) {
	v := strings.TrimSpace(r.Header.Get(opts.RenewalHeader))
	if v == "" {
		return "", false, nil
	}
	return v, true, nil
}

func fromBody(r *http.Request, opts Options) (string, bool, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", false, nil
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return "", false, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, opts.MaxBodyBytes))
	if err != nil {
		return "", false, nil
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", false, nil
	}
	field, ok := payload[bodyField]
	if !ok {
		return "", false, nil
	}
	var token string
	if err := json.Unmarshal(field, &token); err != nil || strings.TrimSpace(token) == "" {
		return "", false, nil
	}
	return strings.TrimSpace(token), true, nil
}
