// Package trust is a credential backend that accepts every non-empty token
// as its own identity. Deployments integrating a real account system replace
// this adapter.
package trust

import (
	"context"
	"errors"

	"github.com/Wyydra/signalhub/internal/core/domain"
)

type Backend struct{}

func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return "", errors.New("empty token")
	}
	return domain.Identity(token), nil
}
