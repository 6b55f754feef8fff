package notifier

// TextNotifier is the minimal notification surface. Components depend
// on it instead of a concrete transport so tests and dry runs can swap
// in a no-op.
type TextNotifier interface {
	SendText(text string) error
}

// Noop discards every message.
type Noop struct{}

func (Noop) SendText(string) error { return nil }
