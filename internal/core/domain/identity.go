package domain

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Identity addresses messages and owns a connection slot. It is either the
// caller's token (durable across reconnects) or a server-minted anonymous id.
type Identity string

const anonymousSuffix = "@anonymous"

// NewAnonymousIdentity mints an identity from 128 bits of randomness,
// rendered as fixed-width hex. Collisions are treated as negligible and
// not re-checked.
func NewAnonymousIdentity() Identity {
	u := uuid.New()
	return Identity(hex.EncodeToString(u[:]) + anonymousSuffix)
}

func (id Identity) IsAnonymous() bool {
	return strings.HasSuffix(string(id), anonymousSuffix)
}

func (id Identity) String() string {
	return string(id)
}
