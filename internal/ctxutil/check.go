// Package ctxutil provides context helpers shared by the provider runners.
package ctxutil

import "context"

// Canceled reports whether ctx is already canceled or past its deadline,
// returning the context error so callers can bail out before starting a
// provider subprocess. ctx.Err() is nil while the context is live, so no
// select is needed.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}
