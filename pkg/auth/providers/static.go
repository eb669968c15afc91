package providers

import (
	"context"
	"errors"
	"strings"
)

var _ AuthProvider = &StaticAuthProvider{}

// ErrInvalidToken is returned by StaticAuthProvider for unknown tokens.
var ErrInvalidToken = errors.New("invalid token")

// StaticAuthProvider checks tokens against a fixed table. It is meant for
// development servers and bots.
type StaticAuthProvider struct {
	tokens map[string]string
	// open accepts "dev:<uid>" tokens for any uid
	open bool
}

type NewStaticAuthProviderOptions struct {
	// Tokens maps a token to the uid it authenticates.
	Tokens map[string]string
	// Open also accepts tokens of the form "dev:<uid>".
	Open bool
}

func NewStaticAuthProvider(opts *NewStaticAuthProviderOptions) *StaticAuthProvider {
	p := &StaticAuthProvider{tokens: make(map[string]string)}
	if opts == nil {
		return p
	}
	for token, uid := range opts.Tokens {
		p.tokens[token] = uid
	}
	p.open = opts.Open
	return p
}

// ParseStaticTokens reads a "token=uid,token=uid" list.
func ParseStaticTokens(s string) map[string]string {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		token, uid, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || token == "" || uid == "" {
			continue
		}
		tokens[token] = uid
	}
	return tokens
}

func (p *StaticAuthProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	if uid, ok := p.tokens[idToken]; ok {
		return &TokenClaims{UID: uid}, nil
	}
	if p.open {
		if uid, ok := strings.CutPrefix(idToken, "dev:"); ok && uid != "" {
			return &TokenClaims{UID: uid}, nil
		}
	}
	return nil, ErrInvalidToken
}
