package auth

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Gate tracks the capability of a single session. Identity changes trigger an
// asynchronous admin resolution against the membership store; while one is
// outstanding the capability reports Loading. Each resolution is tagged with
// the generation it was started for, so a slow check for a superseded
// identity can never overwrite the state of a later sign-in, and a resolution
// arriving after sign-out is discarded.
type Gate struct {
	membership MembershipRepository

	mu         sync.Mutex
	generation uint64
	current    Capability

	pending sync.WaitGroup
}

func NewGate(membership MembershipRepository) *Gate {
	return &Gate{membership: membership}
}

// OnIdentityChange records a sign-in (non-empty identity) or sign-out (empty
// identity). Sign-out resets the capability synchronously; sign-in marks the
// capability loading and resolves admin status in the background.
func (g *Gate) OnIdentityChange(ctx context.Context, identity string) {
	g.mu.Lock()
	g.generation++
	generation := g.generation

	if identity == "" {
		g.current = Capability{}
		g.mu.Unlock()
		log.Debug("identity cleared, capability reset")
		return
	}

	g.current = Capability{
		IsAuthenticated: true,
		Identity:        identity,
		Loading:         true,
	}
	g.mu.Unlock()

	g.pending.Add(1)
	go func() {
		defer g.pending.Done()
		g.resolve(ctx, generation, identity)
	}()
}

func (g *Gate) resolve(ctx context.Context, generation uint64, identity string) {
	isAdmin := g.checkAdmin(ctx, identity)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.generation != generation {
		log.Debugf("discarding stale admin resolution for %s", identity)
		return
	}
	g.current = Capability{
		IsAuthenticated: true,
		IsAdmin:         isAdmin,
		Identity:        identity,
		Loading:         false,
	}
}

// checkAdmin fails closed: any membership store error resolves to not-admin.
// The sign-in itself stays valid, just with reduced capability.
func (g *Gate) checkAdmin(ctx context.Context, identity string) bool {
	isAdmin, err := g.membership.IsAdmin(ctx, identity)
	if err != nil {
		log.Errorf("admin check failed for %s, treating as not admin: %v", identity, err)
		return false
	}
	return isAdmin
}

// Snapshot returns the current capability.
func (g *Gate) Snapshot() Capability {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// GateRegistry keeps one Gate per session id.
type GateRegistry struct {
	membership MembershipRepository

	mu    sync.Mutex
	gates map[string]*Gate
}

func NewGateRegistry(membership MembershipRepository) *GateRegistry {
	return &GateRegistry{
		membership: membership,
		gates:      make(map[string]*Gate),
	}
}

// Gate returns the gate for the given session id, creating it on first use.
func (r *GateRegistry) Gate(sessionId string) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gates[sessionId]
	if !ok {
		g = NewGate(r.membership)
		r.gates[sessionId] = g
	}
	return g
}

// Drop forgets the gate for a session after sign-out.
func (r *GateRegistry) Drop(sessionId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.gates, sessionId)
}
