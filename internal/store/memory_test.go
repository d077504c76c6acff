package store

import (
	"sync"
	"testing"
	"time"
)

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore("Results")
	if store == nil {
		t.Fatal("NewMemoryStore() = nil")
	}

	snap := store.Snapshot()
	if snap.Title != "Results" {
		t.Errorf("Title = %q, want %q", snap.Title, "Results")
	}
	// should start empty
	if len(snap.Items) != 0 || snap.Status != "" || snap.InputHidden {
		t.Errorf("Snapshot() = %+v, want empty page", snap)
	}
	if snap.Items == nil {
		t.Error("Items = nil, want empty slice for JSON")
	}
}

func TestMemoryStore_PageLifecycle(t *testing.T) {
	store := NewMemoryStore("")

	_ = store.Append("old")
	_ = store.SetStatus("Submitting...")
	_ = store.Reset()
	_ = store.HideInput()
	_ = store.SetStatus("Found 2")
	_ = store.Append("a", "b")
	_ = store.Append("c")

	snap := store.Snapshot()
	if snap.Status != "Found 2" {
		t.Errorf("Status = %q, want %q", snap.Status, "Found 2")
	}
	if !snap.InputHidden {
		t.Error("InputHidden = false, want true")
	}
	want := []string{"a", "b", "c"}
	if len(snap.Items) != len(want) {
		t.Fatalf("Items = %v, want %v", snap.Items, want)
	}
	for i := range want {
		if snap.Items[i] != want[i] {
			t.Errorf("Items[%d] = %q, want %q", i, snap.Items[i], want[i])
		}
	}
	if snap.Seq != 7 {
		t.Errorf("Seq = %d, want 7", snap.Seq)
	}
}

func TestMemoryStore_StoresRawText(t *testing.T) {
	store := NewMemoryStore("")

	_ = store.SetStatus("  <b>x</b>  ")
	_ = store.Append("<script>")

	snap := store.Snapshot()
	if snap.Status != "  <b>x</b>  " {
		t.Errorf("Status = %q, want verbatim", snap.Status)
	}
	if snap.Items[0] != "<script>" {
		t.Errorf("Items[0] = %q, want verbatim", snap.Items[0])
	}
}

func TestMemoryStore_SnapshotIsCopy(t *testing.T) {
	store := NewMemoryStore("")
	_ = store.Append("a")

	snap := store.Snapshot()
	snap.Items[0] = "mutated"

	if got := store.Snapshot().Items[0]; got != "a" {
		t.Errorf("Items[0] = %q after mutating snapshot, want %q", got, "a")
	}
}

func TestMemoryStore_EmptyAppendPublishesNothing(t *testing.T) {
	store := NewMemoryStore("")
	ch := store.Subscribe()
	defer store.Unsubscribe(ch)

	_ = store.Append()

	select {
	case ev := <-ch:
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
	if store.Snapshot().Seq != 0 {
		t.Error("Seq moved on empty append")
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore("")

	ch := store.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() = nil")
	}

	// update should send to subscriber
	go func() {
		_ = store.Append("a", "b")
	}()

	select {
	case ev := <-ch:
		if ev.Type != EventAppend {
			t.Errorf("Type = %v, want %v", ev.Type, EventAppend)
		}
		if len(ev.Entries) != 2 || ev.Seq != 1 {
			t.Errorf("event = %+v, want 2 entries at seq 1", ev)
		}
	case <-time.After(1 * time.Second):
		t.Error("Subscribe() channel did not receive event")
	}
}

func TestMemoryStore_EventsInOrder(t *testing.T) {
	store := NewMemoryStore("")
	ch := store.Subscribe()
	defer store.Unsubscribe(ch)

	_ = store.SetStatus("Submitting...")
	_ = store.Reset()
	_ = store.HideInput()
	_ = store.SetStatus("ok")

	want := []EventType{EventStatus, EventReset, EventInput, EventStatus}
	for i, typ := range want {
		ev := <-ch
		if ev.Type != typ || ev.Seq != uint64(i+1) {
			t.Errorf("event %d = {%v, seq %d}, want {%v, seq %d}", i, ev.Type, ev.Seq, typ, i+1)
		}
	}
}

func TestMemoryStore_MultipleSubscribers(t *testing.T) {
	store := NewMemoryStore("")

	ch1 := store.Subscribe()
	ch2 := store.Subscribe()
	ch3 := store.Subscribe()

	// update should fanout to all subscribers
	go func() {
		_ = store.SetStatus("up")
	}()

	received := 0
	timeout := time.After(1 * time.Second)

	for received < 3 {
		select {
		case <-ch1:
			received++
		case <-ch2:
			received++
		case <-ch3:
			received++
		case <-timeout:
			t.Fatalf("Only received %d/3 events", received)
		}
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore("")

	ch := store.Subscribe()
	store.Unsubscribe(ch)

	// channel should be closed
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Unsubscribe() channel should be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}

	// second call is a no-op
	store.Unsubscribe(ch)
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore("")

	// create a subscriber but don't read from it
	_ = store.Subscribe()

	// create another subscriber that reads
	ch2 := store.Subscribe()

	done := make(chan bool)

	go func() {
		// this should not block even though ch1 is not being read
		for i := 0; i < 200; i++ {
			_ = store.Append("x")
		}
		done <- true
	}()

	// drain ch2
	go func() {
		for range ch2 {
		}
	}()

	select {
	case <-done:
		// expected - updates completed without blocking
	case <-time.After(2 * time.Second):
		t.Error("Append() blocked on slow subscriber")
	}

	if n := len(store.Snapshot().Items); n != 200 {
		t.Errorf("Items = %d, want 200", n)
	}
	store.Unsubscribe(ch2)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore("")

	var wg sync.WaitGroup
	numGoroutines := 10
	numUpdates := 100

	// concurrent updates
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numUpdates; j++ {
				_ = store.Append("x")
			}
		}()
	}

	// concurrent reads
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numUpdates; j++ {
				_ = store.Snapshot()
			}
		}()
	}

	// concurrent subscribe/unsubscribe
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := store.Subscribe()
			time.Sleep(10 * time.Millisecond)
			store.Unsubscribe(ch)
		}()
	}

	wg.Wait()

	if n := len(store.Snapshot().Items); n != numGoroutines*numUpdates {
		t.Errorf("Items = %d, want %d", n, numGoroutines*numUpdates)
	}
}
