package service

import (
	"context"

	"github.com/Wyydra/signalhub/internal/core/domain"
	"github.com/Wyydra/signalhub/internal/core/port"
	"github.com/rs/zerolog/log"
)

// Authenticator resolves a credential token (or mints an anonymous identity)
// and installs the connection in the registry.
type Authenticator struct {
	backend        port.CredentialBackend
	registry       *Registry
	versions       []string
	allowAnonymous bool
}

func NewAuthenticator(backend port.CredentialBackend, registry *Registry, versions []string, allowAnonymous bool) *Authenticator {
	return &Authenticator{
		backend:        backend,
		registry:       registry,
		versions:       versions,
		allowAnonymous: allowAnonymous,
	}
}

// Authenticate negotiates the protocol version, resolves the identity and
// installs conn in the registry, preempting any previous holder. On success
// the caller is told its effective identity with a server-authenticated
// notice, which matters when the server minted it.
func (a *Authenticator) Authenticate(ctx context.Context, token, version string, conn port.Conn) (domain.Identity, error) {
	if _, ok := domain.Negotiate(version, a.versions); !ok {
		log.Warn().Str("version", version).Msg("Unsupported client version")
		return "", domain.ErrUnsupportedVersion
	}

	var identity domain.Identity
	if token != "" {
		id, err := a.backend.Authenticate(ctx, token)
		if err != nil {
			log.Warn().Err(err).Msg("Credential backend rejected token")
			return "", domain.ErrAuthFailed
		}
		identity = id
	} else {
		if !a.allowAnonymous {
			return "", domain.ErrAuthFailed
		}
		identity = domain.NewAnonymousIdentity()
		log.Info().Str("identity", identity.String()).Msg("Anonymous client")
	}

	a.registry.Install(identity, conn)
	conn.Send(domain.Notice{Type: domain.NoticeAuthenticated, Identity: identity.String()})
	return identity, nil
}
