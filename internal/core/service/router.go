package service

import (
	"encoding/json"

	"github.com/Wyydra/signalhub/internal/core/domain"
	"github.com/rs/zerolog/log"
)

// Router forwards application-opaque payloads between two registered
// identities. The payload is only annotated, never interpreted.
type Router struct {
	registry *Registry
	tracker  *Tracker
}

func NewRouter(registry *Registry, tracker *Tracker) *Router {
	return &Router{registry: registry, tracker: tracker}
}

// Route delivers payload to the recipient's live connection with the
// sender's authenticated identity injected as the from field. Any
// caller-supplied addressing was already stripped by the transport. There is
// no store-and-forward: an unreachable recipient fails immediately and
// leaves the tracker untouched.
func (r *Router) Route(from, to domain.Identity, payload json.RawMessage) error {
	conn, ok := r.registry.Lookup(to)
	if !ok {
		log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("Recipient unreachable")
		return domain.ErrUnreachablePeer
	}

	r.tracker.RecordIntent(from, to)

	// Delivery is fire-and-forget; a broken recipient connection surfaces
	// through its own read loop, not through the sender's ack.
	conn.Send(domain.Notice{
		Type:    domain.NoticeMessage,
		From:    from.String(),
		Payload: payload,
	})
	return nil
}
