package service

import (
	"sync"
	"time"

	"github.com/Wyydra/signalhub/internal/core/domain"
	"github.com/rs/zerolog/log"
)

// conversation is a tracked span between two identities whose signaling
// intent has been observed in both directions.
type conversation struct {
	id        uint64
	attendees [2]domain.Identity
	startTime time.Time
}

// relation is one identity's record of a known counterparty. cid is zero
// until the exchange is confirmed mutual.
type relation struct {
	cid uint64
}

// Tracker maintains peer relations and the conversation table. Relations
// live exactly as long as their owning connection; conversations live until
// an explicit stop or a disconnect cascade.
type Tracker struct {
	mu            sync.Mutex
	peers         map[domain.Identity]map[domain.Identity]*relation
	conversations map[uint64]*conversation
	nextID        uint64

	now func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		peers:         make(map[domain.Identity]map[domain.Identity]*relation),
		conversations: make(map[uint64]*conversation),
		nextID:        1,
		now:           time.Now,
	}
}

// RecordIntent notes that from has signaled to, creating the one-sided
// relation on first contact. If to already holds a relation back to from,
// the exchange is mutual: a conversation is allocated with a fresh id and
// stamped into both relations. Ids are monotonic and never reused.
func (t *Tracker) RecordIntent(from, to domain.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.relationLocked(from, to) != nil {
		return
	}
	rel := &relation{}
	t.relationsOf(from)[to] = rel

	back := t.relationLocked(to, from)
	if back == nil {
		return
	}

	conv := &conversation{
		id:        t.nextID,
		attendees: [2]domain.Identity{from, to},
		startTime: t.now(),
	}
	t.nextID++
	t.conversations[conv.id] = conv
	rel.cid = conv.id
	back.cid = conv.id
	log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Uint64("conversation", conv.id).
		Msg("Conversation started")
}

// Stop ends the conversation between a and b, if any, and removes the pair
// relations on both sides. Stopping a conversation that no longer exists is
// a silent no-op.
func (t *Tracker) Stop(a, b domain.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopPairLocked(a, b)
}

// DropIdentity tears down every relation the identity holds, ending the
// associated conversations, and returns the peers that knew it so the caller
// can notify them.
func (t *Tracker) DropIdentity(identity domain.Identity) []domain.Identity {
	t.mu.Lock()
	defer t.mu.Unlock()

	var peers []domain.Identity
	for peer := range t.peers[identity] {
		peers = append(peers, peer)
	}
	for _, peer := range peers {
		t.stopPairLocked(identity, peer)
	}
	delete(t.peers, identity)
	return peers
}

// Active reports whether a conversation currently exists between a and b.
func (t *Tracker) Active(a, b domain.Identity) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	rel := t.relationLocked(a, b)
	return rel != nil && rel.cid != 0
}

func (t *Tracker) stopPairLocked(a, b domain.Identity) {
	if rel := t.relationLocked(a, b); rel != nil && rel.cid != 0 {
		t.endConversationLocked(rel.cid)
	}
	if rels, ok := t.peers[a]; ok {
		delete(rels, b)
		if len(rels) == 0 {
			delete(t.peers, a)
		}
	}
	if rels, ok := t.peers[b]; ok {
		delete(rels, a)
		if len(rels) == 0 {
			delete(t.peers, b)
		}
	}
}

func (t *Tracker) endConversationLocked(cid uint64) {
	conv, ok := t.conversations[cid]
	if !ok {
		return
	}
	delete(t.conversations, cid)
	log.Info().
		Str("attendee_a", conv.attendees[0].String()).
		Str("attendee_b", conv.attendees[1].String()).
		Dur("duration", t.now().Sub(conv.startTime)).
		Msg("Conversation stopped")
}

func (t *Tracker) relationLocked(from, to domain.Identity) *relation {
	if rels, ok := t.peers[from]; ok {
		return rels[to]
	}
	return nil
}

func (t *Tracker) relationsOf(identity domain.Identity) map[domain.Identity]*relation {
	rels, ok := t.peers[identity]
	if !ok {
		rels = make(map[domain.Identity]*relation)
		t.peers[identity] = rels
	}
	return rels
}
