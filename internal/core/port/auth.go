package port

import (
	"context"

	"github.com/Wyydra/signalhub/internal/core/domain"
)

// CredentialBackend validates a client token. The trust decision is entirely
// the backend's; the core only maps a rejection to an auth failure.
type CredentialBackend interface {
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}
