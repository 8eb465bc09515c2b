// Package notify delivers user-facing operation results. Delivery is fire-and-forget:
// a notifier never blocks or fails the operation it reports on.
package notify

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Variant is the visual weight of a notification.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a titled message for the user.
type Notification struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	log logrus.FieldLogger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogNotifier{log: log}
}

// Notify logs n at info, or at warn for destructive notifications.
func (l *LogNotifier) Notify(n Notification) {
	entry := l.log.WithField("title", n.Title)
	if n.Variant == VariantDestructive {
		entry.Warn(n.Description)
		return
	}
	entry.Info(n.Description)
}

// Chan buffers notifications for a consumer and drops them when the buffer is full.
type Chan struct {
	C chan Notification
}

// NewChan creates a Chan with the given buffer size.
func NewChan(size int) *Chan {
	return &Chan{C: make(chan Notification, size)}
}

// Notify enqueues n unless the buffer is full.
func (c *Chan) Notify(n Notification) {
	select {
	case c.C <- n:
	default:
	}
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

// Notify forwards n to every non-nil notifier.
func (m Multi) Notify(n Notification) {
	for _, x := range m {
		if x != nil {
			x.Notify(n)
		}
	}
}

// Discard drops every notification.
type Discard struct{}

// Notify does nothing.
func (Discard) Notify(Notification) {}

var printer = message.NewPrinter(language.English)

// Amount renders a quantity with grouping and four decimals, e.g. "1,234.5000 SOL".
func Amount(d decimal.Decimal, unit string) string {
	s := printer.Sprintf("%.4f", d.Round(4).InexactFloat64())
	if unit == "" {
		return s
	}
	return s + " " + unit
}
