package panel

import "github.com/charmbracelet/log"

// Notifier accepts a one-shot user-visible message. Implementations are
// fire-and-forget; the core never observes a return value.
type Notifier interface {
	Notify(title, body string, critical bool)
}

// LogNotifier writes notifications to a logger. It is the default sink
// for surfaces without their own notification mechanism.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a notifier backed by the given logger.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(title, body string, critical bool) {
	if critical {
		n.logger.Error(title, "detail", body)
		return
	}
	n.logger.Info(title, "detail", body)
}

// NotifierFunc adapts a function to the [Notifier] interface.
type NotifierFunc func(title, body string, critical bool)

func (f NotifierFunc) Notify(title, body string, critical bool) {
	f(title, body, critical)
}
