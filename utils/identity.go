package utils

import (
	"context"

	"platera/globals"
)

// IdentityFromContext returns the caller resolved by the auth middleware.
func IdentityFromContext(ctx context.Context) (globals.Identity, bool) {
	ident, ok := ctx.Value(globals.IdentityKey).(globals.Identity)
	if !ok || ident.ID == "" {
		return globals.Identity{}, false
	}
	return ident, true
}
