package service

import (
	"sync"

	"github.com/Wyydra/signalhub/internal/core/domain"
	"github.com/rs/zerolog/log"
)

// Pool tracks backend worker instances and binds each to at most one client.
// Instances persist across client churn; there is no queueing, a caller
// refused by an occupied instance must pick another or retry.
type Pool struct {
	mu       sync.Mutex
	occupied map[domain.Identity]bool            // instance → availability
	bindings map[domain.Identity]domain.Identity // client → bound instance
}

func NewPool() *Pool {
	return &Pool{
		occupied: make(map[domain.Identity]bool),
		bindings: make(map[domain.Identity]domain.Identity),
	}
}

// AddInstance registers a newly connected worker as idle.
func (p *Pool) AddInstance(instance domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.occupied[instance] = false
	log.Info().Str("instance", instance.String()).Msg("Instance joined pool")
}

// RemoveInstance drops the worker outright, regardless of occupancy. Clients
// bound to it are not failed over.
func (p *Pool) RemoveInstance(instance domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.occupied[instance]; !ok {
		return
	}
	delete(p.occupied, instance)
	log.Info().Str("instance", instance.String()).Msg("Instance left pool")
}

// Bind claims the instance for the client. The binding is recorded on the
// client so its disconnect releases the instance automatically.
func (p *Pool) Bind(client, instance domain.Identity) domain.BindStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	busy, ok := p.occupied[instance]
	if !ok {
		return domain.BindNotFound
	}
	if busy {
		return domain.BindOccupied
	}
	p.occupied[instance] = true
	p.bindings[client] = instance
	log.Info().Str("client", client.String()).Str("instance", instance.String()).Msg("Instance bound")
	return domain.BindBound
}

// Release returns the instance to idle if it exists. Idempotent when the
// instance is already idle or unknown.
func (p *Pool) Release(client, instance domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked(client, instance)
}

// DropClient releases whatever instance the client last bound, if any.
func (p *Pool) DropClient(client domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if instance, ok := p.bindings[client]; ok {
		p.releaseLocked(client, instance)
	}
}

// Idle reports whether the instance is registered and unoccupied.
func (p *Pool) Idle(instance domain.Identity) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	busy, ok := p.occupied[instance]
	return ok && !busy
}

func (p *Pool) releaseLocked(client, instance domain.Identity) {
	if bound, ok := p.bindings[client]; ok && bound == instance {
		delete(p.bindings, client)
	}
	if _, ok := p.occupied[instance]; ok && p.occupied[instance] {
		p.occupied[instance] = false
		log.Info().Str("instance", instance.String()).Msg("Instance released")
	}
}
