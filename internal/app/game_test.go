package app

import (
	"testing"
	"time"

	"quiz-arena/internal/domain"
)

func twoQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Prompt: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectIndex: 1},
		{ID: 2, Prompt: "Largest planet?", Options: []string{"Earth", "Jupiter"}, CorrectIndex: 1},
	}
}

func TestNewGameTruncatesToConfiguredCount(t *testing.T) {
	s := DefaultSettings()
	s.TotalQuestions = 1
	g := newGame("g1", twoQuestions(), s, time.Now())
	if len(g.Questions) != 1 || g.TotalQuestions != 1 {
		t.Fatalf("expected 1 question, got %d (total %d)", len(g.Questions), g.TotalQuestions)
	}

	s.TotalQuestions = 10
	g = newGame("g2", twoQuestions(), s, time.Now())
	if len(g.Questions) != 2 || g.TotalQuestions != 2 {
		t.Fatalf("expected clamp to bank size, got %d (total %d)", len(g.Questions), g.TotalQuestions)
	}
}

func TestPublishDropsOldestWhenQueueFull(t *testing.T) {
	g := newGame("g1", twoQuestions(), DefaultSettings(), time.Now())

	for i := 0; i < cap(g.events)+1; i++ {
		g.publish(domain.NewEnvelope(domain.EventTimeUpdate, i, time.Now()))
	}
	if len(g.events) != cap(g.events) {
		t.Fatalf("expected full queue, got %d", len(g.events))
	}
	first := <-g.events
	if first.Payload.(int) != 1 {
		t.Fatalf("expected oldest event dropped, head payload %v", first.Payload)
	}
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	g := newGame("g1", twoQuestions(), DefaultSettings(), time.Now())
	g.closed = true
	close(g.events)
	// Must not panic on the closed channel.
	g.publish(domain.NewEnvelope(domain.EventTimeUpdate, 1, time.Now()))
}

func TestRemainingSecondsFloorsAtZero(t *testing.T) {
	g := newGame("g1", twoQuestions(), DefaultSettings(), time.Now())
	g.TimeLimit = 10 * time.Second
	g.QuestionStart = time.Now().Add(-time.Minute)
	if got := g.remainingSeconds(time.Now()); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestAllAnsweredFalseForEmptyRoster(t *testing.T) {
	g := newGame("g1", twoQuestions(), DefaultSettings(), time.Now())
	if g.allAnswered() {
		t.Fatal("empty roster must not count as all answered")
	}
}

func TestPlayerByNameIsCaseInsensitive(t *testing.T) {
	g := newGame("g1", twoQuestions(), DefaultSettings(), time.Now())
	g.Players = append(g.Players, &domain.Player{ID: "c1", Name: "Alice"})
	if g.playerByName("ALICE") == nil {
		t.Fatal("expected case-insensitive name match")
	}
	if g.playerByName("Bob") != nil {
		t.Fatal("unexpected match for unknown name")
	}
}
