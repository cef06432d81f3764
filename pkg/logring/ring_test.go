package logring

import (
	"fmt"
	"strings"
	"testing"
)

func TestAppendAndText(t *testing.T) {
	ring := NewRing(16)

	ring.Append("", "Starting experiment...")
	ring.Append("run-1", "Key: value")

	text := ring.Text()
	if !strings.Contains(text, "Starting experiment...\n") {
		t.Errorf("Text missing panel line:\n%s", text)
	}
	if !strings.Contains(text, "[run-1] Key: value\n") {
		t.Errorf("Text missing tagged run line:\n%s", text)
	}
	if ring.Len() != 2 {
		t.Errorf("Len = %d, want 2", ring.Len())
	}
}

func TestEmptyRing(t *testing.T) {
	ring := NewRing(4)

	if got := ring.Text(); got != "" {
		t.Errorf("Empty ring Text = %q, want empty", got)
	}
	if got := ring.Len(); got != 0 {
		t.Errorf("Empty ring Len = %d, want 0", got)
	}
	if got := ring.LastSeq(); got != 0 {
		t.Errorf("Empty ring LastSeq = %d, want 0", got)
	}
	if entries := ring.Entries(); len(entries) != 0 {
		t.Errorf("Empty ring Entries = %d, want 0", len(entries))
	}
}

func TestEvictionKeepsNewest(t *testing.T) {
	ring := NewRing(3)

	for i := 1; i <= 5; i++ {
		ring.Append("", fmt.Sprintf("line %d", i))
	}

	entries := ring.Entries()
	if len(entries) != 3 {
		t.Fatalf("Len = %d, want 3", len(entries))
	}
	// Oldest two were evicted.
	for i, want := range []string{"line 3", "line 4", "line 5"} {
		if entries[i].Line != want {
			t.Errorf("entries[%d].Line = %q, want %q", i, entries[i].Line, want)
		}
	}
	if got := ring.Dropped(); got != 2 {
		t.Errorf("Dropped = %d, want 2", got)
	}
}

func TestSequenceNumbersAreMonotonic(t *testing.T) {
	ring := NewRing(4)

	var last uint64
	for i := 0; i < 10; i++ {
		entry := ring.Append("", "line")
		if entry.Seq <= last {
			t.Fatalf("Seq %d not greater than previous %d", entry.Seq, last)
		}
		last = entry.Seq
	}
	// Sequence numbers survive eviction, they are not reused.
	if ring.LastSeq() != 10 {
		t.Errorf("LastSeq = %d, want 10", ring.LastSeq())
	}
}

func TestSince(t *testing.T) {
	ring := NewRing(16)

	for i := 1; i <= 5; i++ {
		ring.Append("", fmt.Sprintf("line %d", i))
	}

	entries := ring.Since(3)
	if len(entries) != 2 {
		t.Fatalf("Since(3) returned %d entries, want 2", len(entries))
	}
	if entries[0].Line != "line 4" || entries[1].Line != "line 5" {
		t.Errorf("Since(3) = %q, %q", entries[0].Line, entries[1].Line)
	}

	if got := ring.Since(ring.LastSeq()); len(got) != 0 {
		t.Errorf("Since(last) returned %d entries, want 0", len(got))
	}
	if got := ring.Since(0); len(got) != 5 {
		t.Errorf("Since(0) returned %d entries, want 5", len(got))
	}
}

func TestSinceAfterEviction(t *testing.T) {
	ring := NewRing(3)

	for i := 1; i <= 6; i++ {
		ring.Append("", fmt.Sprintf("line %d", i))
	}

	// Seqs 1..3 were evicted; asking from seq 1 returns what is left.
	entries := ring.Since(1)
	if len(entries) != 3 {
		t.Fatalf("Since(1) returned %d entries, want 3", len(entries))
	}
	if entries[0].Line != "line 4" {
		t.Errorf("First surviving entry = %q, want %q", entries[0].Line, "line 4")
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("d2f0a1b3-4c5d-6e7f-8091-a2b3c4d5e6f7"); got != "d2f0a1b3" {
		t.Errorf("ShortID = %q, want %q", got, "d2f0a1b3")
	}
	if got := ShortID("run-1"); got != "run-1" {
		t.Errorf("ShortID of short id = %q, want unchanged", got)
	}
}

func TestDefaultSize(t *testing.T) {
	ring := NewRing(0)
	if ring.Cap() != DefaultSize {
		t.Errorf("Cap = %d, want %d", ring.Cap(), DefaultSize)
	}
	ring = NewRing(-3)
	if ring.Cap() != DefaultSize {
		t.Errorf("Cap = %d, want %d", ring.Cap(), DefaultSize)
	}
}

func TestConcurrentAppends(t *testing.T) {
	ring := NewRing(128)

	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			for i := 0; i < 50; i++ {
				ring.Appendf("", "writer %d line %d", g, i)
			}
			done <- struct{}{}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}

	if got := ring.LastSeq(); got != 400 {
		t.Errorf("LastSeq = %d, want 400", got)
	}
	if got := ring.Len(); got != 128 {
		t.Errorf("Len = %d, want full buffer 128", got)
	}
	if got := ring.Dropped(); got != 400-128 {
		t.Errorf("Dropped = %d, want %d", got, 400-128)
	}

	// Entries must come back in sequence order with no duplicates.
	entries := ring.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i].Seq != entries[i-1].Seq+1 {
			t.Fatalf("Gap or reorder at %d: %d then %d", i, entries[i-1].Seq, entries[i].Seq)
		}
	}
}
