// Package notify delivers short user-visible messages about the outcome of
// write operations.
package notify

import (
	"context"
	"sort"
	"strings"
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is one user-visible message.
type Notification struct {
	Level     Level
	Operation string
	Message   string

	// Fields holds per-field validation messages keyed by field name.
	Fields map[string]string
}

// FieldList returns the field messages as "field: message" lines sorted
// by field name.
func (n Notification) FieldList() []string {
	if len(n.Fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(n.Fields))
	for name := range n.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, name+": "+n.Fields[name])
	}
	return out
}

// String renders the notification on one line.
func (n Notification) String() string {
	var b strings.Builder
	b.WriteString(n.Message)
	if fields := n.FieldList(); len(fields) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(fields, "; "))
		b.WriteString(")")
	}
	return b.String()
}

// Notifier delivers notifications.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: delivery is best-effort and must not panic.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, n Notification)

// Notify calls f.
func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Multi fans a notification out to several notifiers in order.
func Multi(notifiers ...Notifier) Notifier {
	return multi(notifiers)
}

type multi []Notifier

func (m multi) Notify(ctx context.Context, n Notification) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(ctx, n)
		}
	}
}

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, Notification) {})
