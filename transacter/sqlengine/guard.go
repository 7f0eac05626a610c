package sqlengine

import "context"

// activeSessionKey marks an execution context that already carries a work
// session. The marker replaces ambient thread identity: Transaction installs
// it on the context handed to the work function and rejects contexts that
// already carry one, so nesting is detected as long as callers pass their
// context through the call chain.
type activeSessionKey struct{}

func withActiveSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, activeSessionKey{}, session)
}

// ActiveSession returns the work session installed on the context by a
// running transaction, if any. Session-close hooks receive a context without
// a session, so they may safely start new transactions.
func ActiveSession(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(activeSessionKey{}).(*Session)
	return session, ok
}
