package service

import (
	"context"
	"encoding/json"

	"github.com/Wyydra/signalhub/internal/core/domain"
	"github.com/Wyydra/signalhub/internal/core/port"
)

// Gateway is the single entry point the transport adapter drives. It
// sequences the stores so cross-store effects (pairing events, conversation
// stops, the disconnect cascade) happen in one well-defined order.
type Gateway struct {
	auth     *Authenticator
	registry *Registry
	router   *Router
	tracker  *Tracker
	rooms    *Rooms
	pool     *Pool
}

func NewGateway(auth *Authenticator, registry *Registry, router *Router, tracker *Tracker, rooms *Rooms, pool *Pool) *Gateway {
	return &Gateway{
		auth:     auth,
		registry: registry,
		router:   router,
		tracker:  tracker,
		rooms:    rooms,
		pool:     pool,
	}
}

// Authenticate resolves the connection's identity. A connection declaring
// the instance role is additionally registered in the worker pool.
func (g *Gateway) Authenticate(ctx context.Context, token, version, role string, conn port.Conn) (domain.Identity, error) {
	identity, err := g.auth.Authenticate(ctx, token, version, conn)
	if err != nil {
		return "", err
	}
	if role == domain.RoleInstance {
		g.pool.AddInstance(identity)
	}
	return identity, nil
}

// Route forwards an opaque payload from the authenticated sender to another
// identity.
func (g *Gateway) Route(from, to domain.Identity, payload json.RawMessage) error {
	return g.router.Route(from, to, payload)
}

// JoinRoom and LeaveRoom drive the capacity-2 pairing state machine.
func (g *Gateway) JoinRoom(roomID string, identity domain.Identity) error {
	return g.rooms.Join(roomID, identity)
}

func (g *Gateway) LeaveRoom(roomID string, identity domain.Identity) {
	g.rooms.Leave(roomID, identity)
}

// StopPeer ends the conversation between from and to, if any, and forwards a
// peer-stopped notice to the target. An unreachable target is reported so the
// caller's ack carries the failure; the local teardown still happened.
func (g *Gateway) StopPeer(from, to domain.Identity) error {
	g.tracker.Stop(from, to)

	conn, ok := g.registry.Lookup(to)
	if !ok {
		return domain.ErrUnreachablePeer
	}
	conn.Send(domain.Notice{Type: domain.NoticePeerStopped, From: from.String()})
	return nil
}

// BindInstance and ReleaseInstance drive the worker pool.
func (g *Gateway) BindInstance(client, instance domain.Identity) domain.BindStatus {
	return g.pool.Bind(client, instance)
}

func (g *Gateway) ReleaseInstance(client, instance domain.Identity) {
	g.pool.Release(client, instance)
}

// Disconnect tears down everything the identity owned: conversations (peers
// that knew it are told peer-stopped), room occupancy, its pool binding and,
// if it was a worker, its pool entry. The registry slot is freed last so a
// rapid reconnect under the same identity cannot race stale cleanup.
//
// A connection that was preempted no longer owns the identity's slot; its
// session state was inherited by the successor, so the cascade is skipped.
func (g *Gateway) Disconnect(identity domain.Identity, conn port.Conn) {
	if !g.registry.Owns(identity, conn) {
		return
	}

	for _, peer := range g.tracker.DropIdentity(identity) {
		if peerConn, ok := g.registry.Lookup(peer); ok {
			peerConn.Send(domain.Notice{Type: domain.NoticePeerStopped, From: identity.String()})
		}
	}

	g.rooms.DropIdentity(identity)

	g.pool.DropClient(identity)
	g.pool.RemoveInstance(identity)

	g.registry.Remove(identity, conn)
}
