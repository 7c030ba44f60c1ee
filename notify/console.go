package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Console prints notifications to a terminal.
type Console struct {
	mu        sync.Mutex
	out       io.Writer
	useColors bool
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer, useColors bool) *Console {
	return &Console{out: w, useColors: useColors}
}

// Notify prints n followed by one indented line per field error.
func (c *Console) Notify(_ context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix, attr := badge(n.Level, c.useColors)
	if c.useColors {
		color.New(attr).Fprintf(c.out, "%s %s\n", prefix, n.Message)
	} else {
		fmt.Fprintf(c.out, "%s %s\n", prefix, n.Message)
	}
	for _, line := range n.FieldList() {
		if c.useColors {
			color.New(color.Faint).Fprintf(c.out, "  - %s\n", line)
		} else {
			fmt.Fprintf(c.out, "  - %s\n", line)
		}
	}
}

func badge(l Level, useColors bool) (string, color.Attribute) {
	switch l {
	case LevelSuccess:
		if useColors {
			return "✓", color.FgGreen
		}
		return "[OK]", color.FgGreen
	case LevelError:
		if useColors {
			return "✗", color.FgRed
		}
		return "[ERROR]", color.FgRed
	default:
		if useColors {
			return "•", color.FgCyan
		}
		return "[INFO]", color.FgCyan
	}
}
