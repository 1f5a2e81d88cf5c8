package settlement

import "context"

// Authenticator proves that the party invoking the current call controls the
// given address. Implementations are supplied by the host environment; the
// engines only decide whether a proven caller is permitted to act.
type Authenticator interface {
	RequireCaller(ctx context.Context, addr [20]byte) error
}

type callerContextKey struct{}

// WithCaller records the authenticated caller address on the context. The host
// transport resolves the caller identity (e.g. from a verified bearer token)
// before handing the call to an engine.
func WithCaller(ctx context.Context, addr [20]byte) context.Context {
	return context.WithValue(ctx, callerContextKey{}, addr)
}

// CallerFromContext returns the authenticated caller recorded on the context.
func CallerFromContext(ctx context.Context) ([20]byte, bool) {
	addr, ok := ctx.Value(callerContextKey{}).([20]byte)
	return addr, ok
}

// ContextAuthenticator authorises a call when the context carries an
// authenticated caller matching the required address.
type ContextAuthenticator struct{}

// RequireCaller implements the Authenticator interface.
func (ContextAuthenticator) RequireCaller(ctx context.Context, addr [20]byte) error {
	caller, ok := CallerFromContext(ctx)
	if !ok || caller != addr {
		return ErrUnauthorized
	}
	return nil
}
