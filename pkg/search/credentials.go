package search

import (
	"context"
	"strings"

	"github.com/beeper/medsearch/pkg/searcherr"
)

// CredentialProvider supplies the bearer token attached to every provider request.
type CredentialProvider interface {
	SessionToken(ctx context.Context) (string, error)
}

// CredentialFunc adapts a function to CredentialProvider.
type CredentialFunc func(ctx context.Context) (string, error)

func (f CredentialFunc) SessionToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken is a fixed session token. A blank token reports ErrAuthRequired.
type StaticToken string

func (t StaticToken) SessionToken(context.Context) (string, error) {
	token := strings.TrimSpace(string(t))
	if token == "" {
		return "", searcherr.ErrAuthRequired
	}
	return token, nil
}
