package app

import (
	"context"
	"strings"
	"time"

	"quiz-arena/internal/domain"
)

// Game is the mutable state of one trivia game. All fields are owned by the
// Registry and must only be touched while holding its lock; the struct
// itself carries no synchronization.
type Game struct {
	ID             string
	State          domain.GameState
	Players        []*domain.Player // join order preserved
	Questions      []domain.Question
	CurrentIndex   int
	QuestionStart  time.Time
	TimeLimit      time.Duration
	MaxPlayers     int
	TotalQuestions int
	CreatedAt      time.Time

	// Answers holds submissions for the current question only and is reset
	// every question cycle.
	Answers []domain.Answer

	events chan domain.Envelope
	closed bool
	// lifecycle is cancelled on teardown; the timer loop and any scheduled
	// auto-start watch it.
	lifecycle context.Context
	cancel    context.CancelFunc
	autoStart bool
}

func newGame(id string, questions []domain.Question, s Settings, now time.Time) *Game {
	total := s.TotalQuestions
	if total <= 0 || total > len(questions) {
		total = len(questions)
	}
	lifecycle, cancel := context.WithCancel(context.Background())
	return &Game{
		ID:             id,
		State:          domain.StateWaitingForPlayers,
		Questions:      questions[:total],
		TimeLimit:      s.QuestionTimeLimit,
		MaxPlayers:     s.MaxPlayers,
		TotalQuestions: total,
		CreatedAt:      now,
		events:         make(chan domain.Envelope, 256),
		lifecycle:      lifecycle,
		cancel:         cancel,
	}
}

// publish enqueues an envelope on the game's outgoing queue in commit order.
// It never blocks: when the queue is full the oldest pending event is
// dropped so a slow consumer cannot stall the registry lock.
func (g *Game) publish(env domain.Envelope) {
	if g.closed {
		return
	}
	select {
	case g.events <- env:
	default:
		select {
		case <-g.events:
		default:
		}
		select {
		case g.events <- env:
		default:
		}
	}
}

func (g *Game) currentQuestion() (domain.Question, bool) {
	if g.CurrentIndex < 0 || g.CurrentIndex >= len(g.Questions) {
		return domain.Question{}, false
	}
	return g.Questions[g.CurrentIndex], true
}

func (g *Game) isFull() bool {
	return len(g.Players) >= g.MaxPlayers
}

func (g *Game) canStart() bool {
	return len(g.Players) >= 1 && g.State == domain.StateWaitingForPlayers
}

func (g *Game) playerByConn(connID string) *domain.Player {
	for _, p := range g.Players {
		if p.ID == connID {
			return p
		}
	}
	return nil
}

func (g *Game) playerByName(name string) *domain.Player {
	for _, p := range g.Players {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func (g *Game) allAnswered() bool {
	if len(g.Players) == 0 {
		return false
	}
	for _, p := range g.Players {
		if !p.HasAnswered {
			return false
		}
	}
	return true
}

func (g *Game) answerFor(playerID string) *domain.Answer {
	for i := range g.Answers {
		if g.Answers[i].PlayerID == playerID {
			return &g.Answers[i]
		}
	}
	return nil
}

// remainingSeconds reports the answer-window time left, floored at zero.
func (g *Game) remainingSeconds(now time.Time) int {
	elapsed := int(now.Sub(g.QuestionStart).Seconds())
	remaining := int(g.TimeLimit.Seconds()) - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// resetQuestionState clears per-question answer tracking ahead of the next
// question cycle.
func (g *Game) resetQuestionState() {
	g.Answers = nil
	for _, p := range g.Players {
		p.HasAnswered = false
		p.CurrentAnswer = -1
	}
}

func (g *Game) playerInfos() []domain.PlayerInfo {
	infos := make([]domain.PlayerInfo, 0, len(g.Players))
	for _, p := range g.Players {
		infos = append(infos, p.Info())
	}
	return infos
}

// Snapshot is a read-only view of a game handed out across the registry
// boundary.
type Snapshot struct {
	GameID         string
	State          domain.GameState
	Players        []domain.PlayerInfo
	PlayerCount    int
	MaxPlayers     int
	CanStart       bool
	QuestionNumber int
	TotalQuestions int
}

func (g *Game) snapshot() Snapshot {
	return Snapshot{
		GameID:         g.ID,
		State:          g.State,
		Players:        g.playerInfos(),
		PlayerCount:    len(g.Players),
		MaxPlayers:     g.MaxPlayers,
		CanStart:       g.canStart(),
		QuestionNumber: g.CurrentIndex + 1,
		TotalQuestions: g.TotalQuestions,
	}
}
