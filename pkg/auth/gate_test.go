package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateResolvesAdminStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("known admin resolves to admin capability", func(t *testing.T) {
		membership := NewStubMembershipRepo("leader@yl.pl")
		gate := NewGate(membership)

		gate.OnIdentityChange(ctx, "leader@yl.pl")
		gate.pending.Wait()

		capability := gate.Snapshot()
		assert.True(t, capability.IsAuthenticated)
		assert.True(t, capability.IsAdmin)
		assert.False(t, capability.Loading)
		assert.Equal(t, "leader@yl.pl", capability.Identity)
	})

	t.Run("unknown identity resolves to authenticated but not admin", func(t *testing.T) {
		membership := NewStubMembershipRepo("leader@yl.pl")
		gate := NewGate(membership)

		gate.OnIdentityChange(ctx, "volunteer@yl.pl")
		gate.pending.Wait()

		capability := gate.Snapshot()
		assert.True(t, capability.IsAuthenticated)
		assert.False(t, capability.IsAdmin)
	})

	t.Run("capability reports loading while the check is outstanding", func(t *testing.T) {
		membership := NewStubMembershipRepo("leader@yl.pl")
		membership.Block()
		gate := NewGate(membership)

		gate.OnIdentityChange(ctx, "leader@yl.pl")

		capability := gate.Snapshot()
		assert.True(t, capability.IsAuthenticated)
		assert.True(t, capability.Loading)
		assert.False(t, capability.IsAdmin)

		membership.Release()
		gate.pending.Wait()
		assert.False(t, gate.Snapshot().Loading)
	})
}

func TestGateFailsClosed(t *testing.T) {
	ctx := context.Background()
	membership := NewStubMembershipRepo("leader@yl.pl")
	membership.FailWith(errors.New("membership store unreachable"))
	gate := NewGate(membership)

	gate.OnIdentityChange(ctx, "leader@yl.pl")
	gate.pending.Wait()

	// Sign-in still succeeds, just with reduced capability.
	capability := gate.Snapshot()
	assert.True(t, capability.IsAuthenticated)
	assert.False(t, capability.IsAdmin)
	assert.False(t, capability.Loading)
}

func TestGateDiscardsStaleResolutions(t *testing.T) {
	ctx := context.Background()

	t.Run("latest identity change wins over an outstanding check", func(t *testing.T) {
		membership := NewStubMembershipRepo("admin@a.com")
		membership.Block()
		gate := NewGate(membership)

		// admin@a.com's check is still in flight when admin-less user@b.com
		// signs in; the final state must reflect user@b.com only.
		gate.OnIdentityChange(ctx, "admin@a.com")
		gate.OnIdentityChange(ctx, "user@b.com")
		membership.Release()
		gate.pending.Wait()

		capability := gate.Snapshot()
		assert.Equal(t, "user@b.com", capability.Identity)
		assert.False(t, capability.IsAdmin)
		assert.False(t, capability.Loading)
	})

	t.Run("resolution arriving after sign-out is discarded", func(t *testing.T) {
		membership := NewStubMembershipRepo("admin@a.com")
		membership.Block()
		gate := NewGate(membership)

		gate.OnIdentityChange(ctx, "admin@a.com")
		gate.OnIdentityChange(ctx, "")
		membership.Release()
		gate.pending.Wait()

		capability := gate.Snapshot()
		assert.False(t, capability.IsAuthenticated)
		assert.False(t, capability.IsAdmin)
		assert.Empty(t, capability.Identity)
	})
}

func TestGateRegistry(t *testing.T) {
	membership := NewStubMembershipRepo()
	registry := NewGateRegistry(membership)

	first := registry.Gate("session-1")
	assert.Same(t, first, registry.Gate("session-1"))
	assert.NotSame(t, first, registry.Gate("session-2"))

	registry.Drop("session-1")
	assert.NotSame(t, first, registry.Gate("session-1"))
}

func TestRequireAdmin(t *testing.T) {
	t.Run("refuses without capability in context", func(t *testing.T) {
		assert.ErrorIs(t, RequireAdmin(context.Background()), ErrNotAuthorized)
	})

	t.Run("refuses while capability is loading", func(t *testing.T) {
		ctx := WithCapability(context.Background(), Capability{
			IsAuthenticated: true,
			IsAdmin:         true,
			Loading:         true,
		})
		assert.ErrorIs(t, RequireAdmin(ctx), ErrNotAuthorized)
	})

	t.Run("allows resolved admin capability", func(t *testing.T) {
		ctx := WithCapability(context.Background(), Capability{
			IsAuthenticated: true,
			IsAdmin:         true,
			Identity:        "leader@yl.pl",
		})
		assert.NoError(t, RequireAdmin(ctx))
	})
}
