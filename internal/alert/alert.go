package alert

// Severity categorizes a notification.
type Severity string

// Severity categories.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Mood indicators attached to user-facing notifications.
const (
	MoodHappy   = "happy"
	MoodNeutral = "neutral"
	MoodSad     = "sad"
)

// Sound identifiers. SoundSuccess is the default chime.
const (
	SoundSuccess = "success"
	SoundAlarm   = "alarm"
)

// Notification is one user-facing alert.
type Notification struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Mood     string   `json:"mood"`
	Sound    string   `json:"sound"`
}

// Notifier is what drivers depend on to raise alerts. Implementations
// must not block the caller.
type Notifier interface {
	Notify(n Notification)
}

// Sink receives notifications accepted by a dispatcher.
type Sink interface {
	Deliver(n Notification) error
}
