package notify

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jonwraymond/storefront/observe"
)

func TestNotificationString(t *testing.T) {
	n := Notification{
		Level:   LevelError,
		Message: "Validation failed",
		Fields:  map[string]string{"price": "must be positive", "name": "required"},
	}
	want := "Validation failed (name: required; price: must be positive)"
	if got := n.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := (Notification{Message: "ok"}).String(); got != "ok" {
		t.Errorf("String() = %q", got)
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	if _, ok := r.Last(); ok {
		t.Fatal("Last on empty recorder")
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Notify(context.Background(), Notification{Level: LevelInfo, Message: "x"})
		}()
	}
	wg.Wait()
	if got := len(r.All()); got != 10 {
		t.Fatalf("All() len = %d, want 10", got)
	}
	r.Notify(context.Background(), Notification{Level: LevelSuccess, Message: "last"})
	if n, ok := r.Last(); !ok || n.Message != "last" {
		t.Fatalf("Last() = %+v, %v", n, ok)
	}
	r.Reset()
	if len(r.All()) != 0 {
		t.Fatal("Reset did not clear")
	}
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	m := Multi(a, nil, b)
	m.Notify(context.Background(), Notification{Message: "hi"})
	if len(a.All()) != 1 || len(b.All()) != 1 {
		t.Fatalf("fan-out failed: a=%d b=%d", len(a.All()), len(b.All()))
	}
	Discard.Notify(context.Background(), Notification{Message: "dropped"})
}

func TestConsolePlain(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)
	c.Notify(context.Background(), Notification{Level: LevelSuccess, Message: "Order placed"})
	c.Notify(context.Background(), Notification{
		Level:   LevelError,
		Message: "Validation failed",
		Fields:  map[string]string{"qty": "too many"},
	})
	c.Notify(context.Background(), Notification{Message: "Heads up"})

	want := "[OK] Order placed\n[ERROR] Validation failed\n  - qty: too many\n[INFO] Heads up\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(observe.NewLoggerWithWriter("debug", &buf))
	n.Notify(context.Background(), Notification{Level: LevelError, Operation: "place-order", Message: "Out of stock"})

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"operation":"place-order"`, `"message":"Out of stock"`, `"component":"notify"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s missing %s", out, want)
		}
	}
}
