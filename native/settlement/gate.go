package settlement

// Window reports whether a deadline-gated action is currently permitted.
type Window uint8

const (
	WindowOpen Window = iota
	WindowClosed
)

// Gate evaluates the deadline window for the given instant. The boundary is
// strict: at now == deadline the window is still open, one second later it is
// closed. Contribution and entry actions require an open window; refund and
// settlement actions require a closed one.
func Gate(now, deadline int64) Window {
	if now > deadline {
		return WindowClosed
	}
	return WindowOpen
}

// Open reports whether the window is still open at the given instant.
func Open(now, deadline int64) bool {
	return Gate(now, deadline) == WindowOpen
}

// Closed reports whether the window has closed at the given instant.
func Closed(now, deadline int64) bool {
	return Gate(now, deadline) == WindowClosed
}
