package httpapi

import "context"

// serverBaseCtx ties handler work to the daemon lifetime so shutdown cancels
// in-flight requests. It stays Background until the daemon installs its own.
var serverBaseCtx = context.Background()

// SetBaseContext installs the daemon-lifetime context consulted by handlers.
// A nil ctx restores the Background default.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context that ends as soon as either parent does.
// Callers must invoke the returned cancel func, which also reclaims the
// watcher goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		select {
		case <-a.Done():
		case <-b.Done():
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
