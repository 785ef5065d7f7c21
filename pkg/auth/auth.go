package auth

import (
	"context"
	"errors"
)

// Capability is the resolved permission state for one signed-in session.
// Loading is true from the moment an identity change is observed until the
// admin check resolves; callers must treat a loading capability as unknown
// and withhold privileged actions.
type Capability struct {
	IsAuthenticated bool
	IsAdmin         bool
	Identity        string
	Loading         bool
}

var ErrNotAuthorized = errors.New("not authorized")

type contextKey string

const capabilityKey contextKey = "capability"

func WithCapability(ctx context.Context, c Capability) context.Context {
	return context.WithValue(ctx, capabilityKey, c)
}

// CurrentCapability returns the capability stored in the context, or the zero
// (unauthenticated, not admin) capability when none is present.
func CurrentCapability(ctx context.Context) Capability {
	c, ok := ctx.Value(capabilityKey).(Capability)
	if !ok {
		return Capability{}
	}
	return c
}

// RequireAdmin refuses unless the context carries a resolved admin capability.
// A capability that is still loading counts as not authorized.
func RequireAdmin(ctx context.Context) error {
	c := CurrentCapability(ctx)
	if !c.IsAdmin || c.Loading {
		return ErrNotAuthorized
	}
	return nil
}
