package notify

import "log"

// Level classifies a user-facing notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a single user-facing notification. Only business-meaningful
// failures and events reach this boundary; lower layers swallow what
// they can safely interpret.
type Notice struct {
	Level   Level
	Title   string
	Message string
	// LoginRequired marks the notice that asks the user to sign in again.
	LoginRequired bool
}

// Notifier buffers notices for whatever frontend consumes the engine.
// All methods are safe on a nil receiver, matching how optional
// collaborators behave elsewhere in the codebase.
type Notifier struct {
	ch chan Notice
}

// New creates a Notifier with the given buffer size.
func New(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = 64
	}
	return &Notifier{ch: make(chan Notice, buffer)}
}

// Notices exposes the stream of pending notices.
func (n *Notifier) Notices() <-chan Notice {
	if n == nil {
		return nil
	}
	return n.ch
}

func (n *Notifier) Info(title, message string) {
	n.push(Notice{Level: LevelInfo, Title: title, Message: message})
}

func (n *Notifier) Success(title, message string) {
	n.push(Notice{Level: LevelSuccess, Title: title, Message: message})
}

func (n *Notifier) Warning(title, message string) {
	n.push(Notice{Level: LevelWarning, Title: title, Message: message})
}

func (n *Notifier) Error(message string) {
	n.push(Notice{Level: LevelError, Message: message})
}

// LoginRequired emits the re-login prompt shown after an unrecoverable
// credential failure.
func (n *Notifier) LoginRequired(message string) {
	n.push(Notice{Level: LevelError, Message: message, LoginRequired: true})
}

func (n *Notifier) push(notice Notice) {
	if n == nil {
		return
	}
	log.Printf("notice [%s] %s %s", notice.Level, notice.Title, notice.Message)
	select {
	case n.ch <- notice:
	default:
		// A stalled consumer must not block the engine.
	}
}
