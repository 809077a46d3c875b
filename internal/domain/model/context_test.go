package model

import (
	"strings"
	"testing"
	"time"
)

func fixtureMessages() []ContextMessage {
	base := time.Date(2026, 3, 14, 15, 4, 0, 0, time.UTC)
	return []ContextMessage{
		{Author: "alice", Text: "morning all", Timestamp: base},
		{Author: "bob", Text: "hey", Timestamp: base.Add(time.Minute)},
		{Author: "alice", Text: "deploy is done", Timestamp: base.Add(2 * time.Minute)},
	}
}

func TestComposeBalancedKeepsAuthors(t *testing.T) {
	snap := NewContextSnapshot("chan-1", fixtureMessages())

	block := snap.Compose(ModeBalanced)
	lines := strings.Split(block, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0] != "[15:04] alice: morning all" {
		t.Fatalf("line 0 = %q", lines[0])
	}
	if lines[1] != "[15:05] bob: hey" {
		t.Fatalf("line 1 = %q", lines[1])
	}
}

func TestComposeStrictPseudonymizes(t *testing.T) {
	snap := NewContextSnapshot("chan-1", fixtureMessages())

	block := snap.Compose(ModeStrict)
	for _, name := range []string{"alice", "bob"} {
		if strings.Contains(block, name) {
			t.Fatalf("strict block leaks %q:\n%s", name, block)
		}
	}
	lines := strings.Split(block, "\n")
	// Same author keeps the same pseudonym within a snapshot.
	first := strings.SplitN(strings.TrimPrefix(lines[0], "[15:04] "), ":", 2)[0]
	third := strings.SplitN(strings.TrimPrefix(lines[2], "[15:06] "), ":", 2)[0]
	if first != third {
		t.Fatalf("pseudonym not stable within snapshot: %q vs %q", first, third)
	}
	second := strings.SplitN(strings.TrimPrefix(lines[1], "[15:05] "), ":", 2)[0]
	if second == first {
		t.Fatalf("distinct authors share pseudonym %q", second)
	}
	if !strings.HasPrefix(first, "Participant-") {
		t.Fatalf("pseudonym format = %q", first)
	}
}

func TestPseudonymOffsetVariesAcrossCompositions(t *testing.T) {
	snap := NewContextSnapshot("chan-1", fixtureMessages())

	seen := map[string]struct{}{}
	for i := 0; i < 30; i++ {
		labels := snap.Participants(ModeStrict)
		if len(labels) == 0 {
			t.Fatalf("no labels composed")
		}
		seen[labels[0]] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("identical labels across 30 compositions, offset not randomized")
	}
}

func TestComposeEmptySnapshot(t *testing.T) {
	var nilSnap *ContextSnapshot
	if got := nilSnap.Compose(ModeBalanced); got != "" {
		t.Fatalf("nil snapshot composed %q", got)
	}
	empty := NewContextSnapshot("chan-1", nil)
	if got := empty.Compose(ModeStrict); got != "" {
		t.Fatalf("empty snapshot composed %q", got)
	}
	if !empty.Empty() {
		t.Fatalf("Empty() = false for no messages")
	}
}

func TestComposeTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("x", 5000)
	snap := NewContextSnapshot("chan-1", []ContextMessage{
		{Author: "alice", Text: long, Timestamp: time.Date(2026, 3, 14, 15, 4, 0, 0, time.UTC)},
	})

	block := snap.Compose(ModeBalanced)
	text := strings.SplitN(block, ": ", 2)[1]
	if len([]rune(text)) != 2000 {
		t.Fatalf("truncated length = %d, want 2000", len([]rune(text)))
	}
}

func TestParticipantsDeduplicated(t *testing.T) {
	snap := NewContextSnapshot("chan-1", fixtureMessages())

	got := snap.Participants(ModeBalanced)
	if len(got) != 2 {
		t.Fatalf("participants = %v, want 2", got)
	}
	if got[0] != "alice" || got[1] != "bob" {
		t.Fatalf("participants = %v, want first-appearance order", got)
	}

	strict := snap.Participants(ModeStrict)
	if len(strict) != 2 {
		t.Fatalf("strict participants = %v, want 2", strict)
	}
	if strict[0] == strict[1] {
		t.Fatalf("strict participants not distinct: %v", strict)
	}
}

func TestSnapshotIDsUnique(t *testing.T) {
	a := NewContextSnapshot("chan-1", nil)
	b := NewContextSnapshot("chan-1", nil)
	if a.ID == b.ID {
		t.Fatalf("snapshot IDs collide")
	}
	if a.FetchedAt.IsZero() {
		t.Fatalf("FetchedAt not set")
	}
}
