package realtime

// Notifier fans an event out to everyone watching a session. Delivery is
// best effort: no persistence, no replay, and publishing never blocks or
// fails the caller's operation.
type Notifier interface {
	Publish(sessionID, event string, payload any)
}

// NopNotifier discards every event.
type NopNotifier struct{}

var _ Notifier = NopNotifier{}

func (NopNotifier) Publish(sessionID, event string, payload any) {}
