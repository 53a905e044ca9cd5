package service

import (
	"sync"

	"github.com/Wyydra/signalhub/internal/core/domain"
	"github.com/Wyydra/signalhub/internal/core/port"
	"github.com/rs/zerolog/log"
)

// Registry owns the identity → connection table. For any identity present,
// the mapped connection is the most recently authenticated one; installing a
// new connection terminates the old one first, under the same lock, so the
// handoff is never observable.
type Registry struct {
	mu    sync.Mutex
	conns map[domain.Identity]port.Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.Identity]port.Conn)}
}

// Install binds identity to conn, preempting any previous connection for the
// same identity. The preempted connection is sent a server-disconnect notice
// and closed before the new entry lands.
func (r *Registry) Install(identity domain.Identity, conn port.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.conns[identity]; ok && old != conn {
		old.Send(domain.Notice{Type: domain.NoticeDisconnect})
		old.Close()
		log.Info().Str("identity", identity.String()).Msg("Force disconnected previous connection")
	}
	r.conns[identity] = conn
	log.Info().Str("identity", identity.String()).Int("online", len(r.conns)).Msg("Client connected")
}

// Remove deletes the entry only if conn still owns the slot. A connection
// preempted by a newer one must not tear down its successor's entry.
func (r *Registry) Remove(identity domain.Identity, conn port.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[identity]; ok && cur == conn {
		delete(r.conns, identity)
		log.Info().Str("identity", identity.String()).Int("online", len(r.conns)).Msg("Client disconnected")
	}
}

// Owns reports whether conn currently holds the identity's slot. A
// preempted connection no longer owns its slot and must not cascade cleanup
// over its successor's state.
func (r *Registry) Owns(identity domain.Identity, conn port.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.conns[identity]
	return ok && cur == conn
}

func (r *Registry) Lookup(identity domain.Identity) (port.Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[identity]
	return conn, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
