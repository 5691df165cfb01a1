package notify

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
)

func TestBus_PublishOrderAndID(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(func(toast Toast) { got = append(got, "first:"+toast.Message) })
	bus.Subscribe(func(toast Toast) { got = append(got, "second:"+toast.Message) })

	published := bus.Publish(Toast{Message: "hello", Kind: KindSuccess})
	if published.ID == "" {
		t.Error("Expected generated ID")
	}
	if len(got) != 2 || got[0] != "first:hello" || got[1] != "second:hello" {
		t.Errorf("Expected delivery in subscription order, got %v", got)
	}

	kept := bus.Publish(Toast{ID: "fixed", Message: "x"})
	if kept.ID != "fixed" {
		t.Errorf("Expected ID to be kept, got %s", kept.ID)
	}
	if kept.Kind != KindDefault {
		t.Errorf("Expected default kind, got %s", kept.Kind)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	var a, b int
	unsubA := bus.Subscribe(func(Toast) { a++ })
	bus.Subscribe(func(Toast) { b++ })

	bus.Info("one")
	unsubA()
	unsubA()
	bus.Info("two")

	if a != 1 {
		t.Errorf("Expected first handler called once, got %d", a)
	}
	if b != 2 {
		t.Errorf("Expected second handler called twice, got %d", b)
	}
	if bus.Subscribers() != 1 {
		t.Errorf("Expected 1 subscriber, got %d", bus.Subscribers())
	}
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus()
	toast := bus.Error("nobody listening")
	if toast.Kind != KindError {
		t.Errorf("Expected error kind, got %s", toast.Kind)
	}
}

func TestToaster_IndependentExpiry(t *testing.T) {
	bus := NewBus()
	toaster := NewToaster(bus, 80*time.Millisecond, nil)
	defer toaster.Close()

	first := bus.Info("first")
	time.Sleep(40 * time.Millisecond)
	second := bus.Success("second")

	visible := toaster.Visible()
	if len(visible) != 2 || visible[0].ID != first.ID || visible[1].ID != second.ID {
		t.Fatalf("Expected both toasts visible in order, got %+v", visible)
	}

	waitFor(t, func() bool { return len(toaster.Visible()) == 1 })
	if remaining := toaster.Visible(); remaining[0].ID != second.ID {
		t.Errorf("Expected the second toast to remain, got %+v", remaining)
	}

	waitFor(t, func() bool { return len(toaster.Visible()) == 0 })
}

func TestToaster_SameIDExpiresIndependently(t *testing.T) {
	bus := NewBus()
	toaster := NewToaster(bus, 50*time.Millisecond, nil)
	defer toaster.Close()

	bus.Publish(Toast{ID: "same", Message: "one"})
	time.Sleep(20 * time.Millisecond)
	bus.Publish(Toast{ID: "same", Message: "two"})

	if visible := toaster.Visible(); len(visible) != 2 {
		t.Fatalf("Expected 2 visible toasts, got %+v", visible)
	}

	waitFor(t, func() bool { return len(toaster.Visible()) == 0 })
}

func TestToaster_DismissAndOnChange(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	var sizes []int
	toaster := NewToaster(bus, time.Hour, func(snapshot []Toast) {
		mu.Lock()
		sizes = append(sizes, len(snapshot))
		mu.Unlock()
	})
	defer toaster.Close()

	toast := bus.Error("boom")
	toaster.Dismiss(toast.ID)
	toaster.Dismiss(toast.ID)
	toaster.Dismiss("unknown")

	if len(toaster.Visible()) != 0 {
		t.Errorf("Expected no visible toasts, got %d", len(toaster.Visible()))
	}
	mu.Lock()
	defer mu.Unlock()
	if len(sizes) != 2 || sizes[0] != 1 || sizes[1] != 0 {
		t.Errorf("Expected change sizes [1 0], got %v", sizes)
	}
}

func TestToaster_CloseUnsubscribes(t *testing.T) {
	bus := NewBus()
	toaster := NewToaster(bus, time.Hour, nil)
	toaster.Close()

	bus.Info("ignored")
	if len(toaster.Visible()) != 0 {
		t.Error("Expected closed toaster to ignore toasts")
	}
	if bus.Subscribers() != 0 {
		t.Errorf("Expected no subscribers, got %d", bus.Subscribers())
	}
}

func TestTerminalRenderer(t *testing.T) {
	previous := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = previous }()

	var buf bytes.Buffer
	bus := NewBus()
	renderer := NewTerminalRenderer(&buf)
	toaster := NewToaster(bus, time.Minute, renderer.Follow())

	bus.Success("Giriş başarılı")
	first := bus.Error("Geçersiz kod.")
	toaster.Dismiss(first.ID)
	toaster.Close()
	bus.Info("not rendered")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "✔ Giriş başarılı" {
		t.Errorf("Unexpected first line: %q", lines[0])
	}
	if lines[1] != "✖ Geçersiz kod." {
		t.Errorf("Unexpected second line: %q", lines[1])
	}
}

func TestTerminalRenderer_FollowRendersRepeatedIDs(t *testing.T) {
	previous := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = previous }()

	var buf bytes.Buffer
	follow := NewTerminalRenderer(&buf).Follow()

	busy := Toast{ID: "busy", Message: "Lütfen bekleyin", Kind: KindError}
	follow([]Toast{busy})
	follow([]Toast{busy, busy})
	follow([]Toast{busy})
	follow(nil)
	follow([]Toast{busy})

	if got := strings.Count(buf.String(), "✖ Lütfen bekleyin"); got != 3 {
		t.Errorf("Expected 3 renders, got %d: %q", got, buf.String())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
