package queue

import (
	"errors"
	"sync"
	"testing"

	"github.com/jorabin/sounds/internal/cadence"
)

func testSection(t *testing.T, ms int) *cadence.Section {
	t.Helper()
	s, err := cadence.NewSection("test", ms, cadence.Segment{Tones: cadence.RingerTones, On: ms})
	if err != nil {
		t.Fatalf("NewSection: %v", err)
	}
	return s
}

func TestItem_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		path  []Status
		valid []bool
	}{
		{"played", []Status{Started, Finished}, []bool{true, true}},
		{"cancelled while playing", []Status{Started, Abandoned}, []bool{true, true}},
		{"discarded from queue", []Status{Abandoned}, []bool{true}},
		{"cannot finish without starting", []Status{Finished}, []bool{false}},
		{"cannot restart", []Status{Started, Started}, []bool{true, false}},
		{"terminal is final", []Status{Started, Finished, Abandoned}, []bool{true, true, false}},
		{"cannot go back to idle", []Status{Started, Idle}, []bool{true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := NewItem(testSection(t, 1000))
			for n, to := range tt.path {
				before := item.Status()
				err := item.Advance(to)
				if tt.valid[n] {
					if err != nil {
						t.Fatalf("Advance(%s) from %s: %v", to, before, err)
					}
					if item.Status() != to {
						t.Errorf("expected %s, got %s", to, item.Status())
					}
				} else {
					if !errors.Is(err, ErrInvalidTransition) {
						t.Fatalf("Advance(%s) from %s: expected ErrInvalidTransition, got %v", to, before, err)
					}
					if item.Status() != before {
						t.Errorf("status changed on rejected transition: %s", item.Status())
					}
				}
			}
		})
	}
}

func TestItem_ListenersNotifiedOncePerTransition(t *testing.T) {
	item := NewItem(testSection(t, 1000))

	var mu sync.Mutex
	seen := map[string][]Status{}
	record := func(name string) Listener {
		return func(it *Item, s Status) {
			if it != item {
				t.Errorf("listener got wrong item")
			}
			mu.Lock()
			seen[name] = append(seen[name], s)
			mu.Unlock()
		}
	}

	item.AddListener(record("a"))
	remove := item.AddListener(record("b"))

	item.Advance(Started)
	remove()
	item.Advance(Finished)
	item.Advance(Abandoned) // rejected, no notification

	if got := seen["a"]; len(got) != 2 || got[0] != Started || got[1] != Finished {
		t.Errorf("listener a saw %v", got)
	}
	if got := seen["b"]; len(got) != 1 || got[0] != Started {
		t.Errorf("removed listener b saw %v", got)
	}
}

func TestItem_ListenerPanicContained(t *testing.T) {
	item := NewItem(testSection(t, 1000))
	called := false
	item.AddListener(func(*Item, Status) { panic("boom") })
	item.AddListener(func(*Item, Status) { called = true })

	if err := item.Advance(Abandoned); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !called {
		t.Error("second listener should still run")
	}
}

func TestItem_ListenerMayReadStatus(t *testing.T) {
	item := NewItem(testSection(t, 1000))
	var observed Status
	item.AddListener(func(it *Item, _ Status) {
		// must not deadlock
		observed = it.Status()
	})
	item.Advance(Started)
	if observed != Started {
		t.Errorf("expected Started, got %s", observed)
	}
}

func TestItem_Done(t *testing.T) {
	item := NewItem(testSection(t, 1000))

	item.Advance(Started)
	select {
	case <-item.Done():
		t.Fatal("Done closed before terminal status")
	default:
	}

	item.Advance(Finished)
	select {
	case <-item.Done():
	default:
		t.Fatal("Done not closed after Finished")
	}
}

func TestItem_IDsUnique(t *testing.T) {
	a, b := NewItem(testSection(t, 1000)), NewItem(testSection(t, 1000))
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct ids, got %q and %q", a.ID, b.ID)
	}
}

func TestStatus_String(t *testing.T) {
	for s, want := range map[Status]string{Idle: "idle", Started: "started", Finished: "finished", Abandoned: "abandoned", 9: "Status(9)"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int32(s), s.String(), want)
		}
	}
}
