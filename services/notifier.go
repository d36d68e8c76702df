package services

// Live feed message types.
const (
	MessageSubmissionCreated = "submission_created"
	MessageWinnersUpdated    = "winners_updated"
	MessageEventUpdated      = "event_updated"
	MessageEventStateChanged = "event_state_changed"
)

// Notifier fans out change notifications for one event to live subscribers.
type Notifier interface {
	Notify(event, messageType string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
