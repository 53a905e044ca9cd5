package service

import (
	"sync"

	"github.com/Wyydra/signalhub/internal/core/domain"
	"github.com/rs/zerolog/log"
)

// Rooms pairs two identities in capacity-2 rendezvous buckets. Occupant
// order matters: the first entrant is the answerer, the second the offerer.
// An empty room does not exist.
type Rooms struct {
	mu         sync.Mutex
	occupants  map[string][]domain.Identity
	membership map[domain.Identity]map[string]struct{}

	registry *Registry
	tracker  *Tracker
}

func NewRooms(registry *Registry, tracker *Tracker) *Rooms {
	return &Rooms{
		occupants:  make(map[string][]domain.Identity),
		membership: make(map[domain.Identity]map[string]struct{}),
		registry:   registry,
		tracker:    tracker,
	}
}

// Join moves the room through Empty → Waiting → Paired. The sole occupant of
// a fresh room is told it is waiting; on pairing, both sides learn the
// other's identity and their positional role. A third joiner fails with
// RoomFull and the existing pair is untouched.
func (r *Rooms) Join(roomID string, identity domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.occupants[roomID]
	switch len(members) {
	case 0:
		r.occupants[roomID] = []domain.Identity{identity}
		r.memberOf(identity)[roomID] = struct{}{}
		r.notify(identity, domain.Notice{Type: domain.NoticePeerWaiting, RoomID: roomID})

	case 1:
		first := members[0]
		r.occupants[roomID] = append(members, identity)
		r.memberOf(identity)[roomID] = struct{}{}
		r.notify(first, domain.Notice{
			Type:   domain.NoticePeerPaired,
			RoomID: roomID,
			Peer:   identity.String(),
			Role:   domain.RoleAnswerer,
		})
		r.notify(identity, domain.Notice{
			Type:   domain.NoticePeerPaired,
			RoomID: roomID,
			Peer:   first.String(),
			Role:   domain.RoleOfferer,
		})

	default:
		return domain.ErrRoomFull
	}

	log.Info().Str("room", roomID).Int("occupants", len(r.occupants[roomID])).Msg("Room joined")
	return nil
}

// Leave removes identity from the room, deleting the room when it empties
// and otherwise telling the remaining occupant it is waiting again. Any
// conversation between the leaver and the other occupant is stopped.
func (r *Rooms) Leave(roomID string, identity domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(roomID, identity)
}

// DropIdentity removes identity from every room it occupies, with the same
// semantics as an explicit leave.
func (r *Rooms) DropIdentity(identity domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.membership[identity] {
		r.leaveLocked(roomID, identity)
	}
	delete(r.membership, identity)
}

// Occupants returns a copy of the room's member list, in entry order.
func (r *Rooms) Occupants(roomID string) []domain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.occupants[roomID]
	out := make([]domain.Identity, len(members))
	copy(out, members)
	return out
}

func (r *Rooms) leaveLocked(roomID string, identity domain.Identity) {
	members, ok := r.occupants[roomID]
	if !ok {
		return
	}

	remaining := members[:0]
	found := false
	for _, m := range members {
		if m == identity {
			found = true
			continue
		}
		remaining = append(remaining, m)
	}
	if !found {
		return
	}

	if rels, ok := r.membership[identity]; ok {
		delete(rels, roomID)
	}

	for _, other := range remaining {
		r.tracker.Stop(identity, other)
	}

	if len(remaining) == 0 {
		delete(r.occupants, roomID)
		log.Info().Str("room", roomID).Msg("Room deleted")
		return
	}

	r.occupants[roomID] = remaining
	for _, other := range remaining {
		r.notify(other, domain.Notice{Type: domain.NoticePeerWaiting, RoomID: roomID})
	}
	log.Info().Str("room", roomID).Int("occupants", len(remaining)).Msg("Room left")
}

func (r *Rooms) notify(identity domain.Identity, notice domain.Notice) {
	if conn, ok := r.registry.Lookup(identity); ok {
		conn.Send(notice)
	}
}

func (r *Rooms) memberOf(identity domain.Identity) map[string]struct{} {
	rooms, ok := r.membership[identity]
	if !ok {
		rooms = make(map[string]struct{})
		r.membership[identity] = rooms
	}
	return rooms
}
