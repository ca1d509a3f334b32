package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/xaenox/second-brain/internal/models"
	"go.uber.org/zap"
)

func TestCenter_AddThenRemove(t *testing.T) {
	c := NewCenter(zap.NewNop())
	defer c.Close()

	id := c.Add("boom", models.SeverityError)
	if got := c.List(); len(got) != 1 || got[0].ID != id {
		t.Fatalf("List() = %+v, want one entry with id %s", got, id)
	}

	c.Remove(id)
	if got := c.List(); len(got) != 0 {
		t.Fatalf("List() after Remove = %+v, want empty", got)
	}

	// second removal is a no-op
	c.Remove(id)
	if got := c.List(); len(got) != 0 {
		t.Fatalf("List() after second Remove = %+v, want empty", got)
	}
}

func TestCenter_DefaultSeverityAndOrder(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	c := NewCenter(zap.NewNop(), WithClock(func() time.Time { return now }))
	defer c.Close()

	c.Add("same", "")
	c.Add("same", models.SeverityInfo)
	c.Add("third", models.SeveritySuccess)

	got := c.List()
	if len(got) != 3 {
		t.Fatalf("len(List()) = %d, want 3", len(got))
	}
	if got[0].Severity != models.SeverityError {
		t.Errorf("default severity = %q, want error", got[0].Severity)
	}
	if got[0].ID == got[1].ID {
		t.Error("duplicate messages created in the same millisecond share an id")
	}
	if got[2].Message != "third" || got[0].Timestamp != now.UnixMilli() {
		t.Errorf("unexpected entries: %+v", got)
	}
}

func TestCenter_ExpiresAfterTTL(t *testing.T) {
	c := NewCenter(zap.NewNop(), WithTTL(20*time.Millisecond))
	defer c.Close()

	c.Add("short lived", models.SeverityWarning)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(c.List()) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("notification was not removed after its TTL")
}

func TestCenter_ManualRemoveRacesExpiry(t *testing.T) {
	c := NewCenter(zap.NewNop(), WithTTL(time.Millisecond))
	defer c.Close()

	id := c.Add("race", models.SeverityError)
	time.Sleep(10 * time.Millisecond)
	c.Remove(id)

	for _, n := range c.List() {
		if n.ID == id {
			t.Fatal("removed notification still listed")
		}
	}
}

func TestCenter_Clear(t *testing.T) {
	c := NewCenter(zap.NewNop())
	defer c.Close()

	c.Add("a", models.SeverityError)
	c.Add("b", models.SeverityError)
	c.Clear()

	if got := c.List(); len(got) != 0 {
		t.Fatalf("List() after Clear = %+v", got)
	}
}

func TestCenter_Subscribe(t *testing.T) {
	c := NewCenter(zap.NewNop())
	defer c.Close()

	var mu sync.Mutex
	var seen []string
	unsubscribe := c.Subscribe(func(n models.Notification) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, n.Message)
	})

	c.Add("first", models.SeverityInfo)
	unsubscribe()
	c.Add("second", models.SeverityInfo)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "first" {
		t.Fatalf("subscriber saw %v, want [first]", seen)
	}
}

func TestCenter_ClosedIgnoresAdd(t *testing.T) {
	c := NewCenter(zap.NewNop())
	c.Close()
	c.Add("late", models.SeverityError)
	if got := c.List(); len(got) != 0 {
		t.Fatalf("List() after Close = %+v", got)
	}
}

func TestColorFor(t *testing.T) {
	tests := map[models.Severity]Color{
		models.SeverityError:   ColorRed,
		models.SeverityWarning: ColorYellow,
		models.SeveritySuccess: ColorGreen,
		models.SeverityInfo:    ColorBlue,
		"debug":                ColorNeutral,
	}
	for sev, want := range tests {
		if got := ColorFor(sev); got != want {
			t.Errorf("ColorFor(%q) = %q, want %q", sev, got, want)
		}
	}
}
