package domain

import (
	"fmt"
	"time"
)

// GameState is the lifecycle phase of a single trivia game.
type GameState string

const (
	StateWaitingForPlayers GameState = "waitingForPlayers"
	StateStarting          GameState = "starting"
	StateQuestionDisplay   GameState = "questionDisplay"
	StateWaitingForAnswers GameState = "waitingForAnswers"
	StateShowingResults    GameState = "showingResults"
	StateGameOver          GameState = "gameOver"
)

// Player represents a connected contestant and their accumulated score.
// The ID is the connection id of the player's current connection; a
// reconnect with the same name replaces it in place.
type Player struct {
	ID            string
	Name          string
	Score         int
	CurrentAnswer int // selected option for the current question, -1 if none
	JoinedAt      time.Time
	HasAnswered   bool
}

// PlayerInfo is a snapshot-friendly view of a player.
type PlayerInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	HasAnswered bool   `json:"hasAnswered"`
}

// Info returns the broadcastable view of the player.
func (p *Player) Info() PlayerInfo {
	return PlayerInfo{ID: p.ID, Name: p.Name, Score: p.Score, HasAnswered: p.HasAnswered}
}

// Question models an MCQ trivia question with exactly one correct option.
type Question struct {
	ID           int      `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Category     string   `json:"category"`
	Explanation  string   `json:"explanation"`
}

// View strips the correct answer and explanation for broadcasting while a
// question is still open.
func (q Question) View() QuestionView {
	return QuestionView{ID: q.ID, Prompt: q.Prompt, Options: q.Options, Category: q.Category}
}

// QuestionView is the client-safe form of a question.
type QuestionView struct {
	ID       int      `json:"id"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Category string   `json:"category"`
}

// QuestionBank is an ordered collection of questions a game snapshots at
// creation time.
type QuestionBank struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// Validate rejects banks that could not survive a full game: every question
// needs options and a correct index inside their range. Banks are validated
// before any game snapshots them, so malformed data fails loading rather
// than a running game.
func (b QuestionBank) Validate() error {
	if len(b.Questions) == 0 {
		return ErrBankEmpty
	}
	for _, q := range b.Questions {
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d has no options", ErrBankMalformed, q.ID)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %d correct index %d out of range for %d options", ErrBankMalformed, q.ID, q.CorrectIndex, len(q.Options))
		}
	}
	return nil
}

// Answer records one player's submission for the current question. At most
// one answer exists per player per question.
type Answer struct {
	PlayerID       string    `json:"playerId"`
	SelectedOption int       `json:"selectedOption"`
	AnsweredAt     time.Time `json:"answeredAt"`
}

// PlayerResult summarizes one player's outcome for a single question or, in
// final results, the whole game. Rank is set only on final leaderboard
// entries (1 = winner); per-question results leave it zero.
type PlayerResult struct {
	PlayerID       string `json:"playerId"`
	PlayerName     string `json:"playerName"`
	SelectedOption int    `json:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect"`
	ScoreGained    int    `json:"scoreGained"`
	TotalScore     int    `json:"totalScore"`
	Rank           int    `json:"rank,omitempty"`
}

// GameStatistics aggregates end-of-game numbers for the summary broadcast.
type GameStatistics struct {
	DurationSeconds float64 `json:"durationSeconds"`
	TotalQuestions  int     `json:"totalQuestions"`
	TotalPlayers    int     `json:"totalPlayers"`
	AverageScore    float64 `json:"averageScore"`
}
