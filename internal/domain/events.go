package domain

import "time"

// Event names carried on the wire. Every envelope type maps to exactly one
// payload struct below so the broadcast shapes are checked at compile time.
const (
	EventGameCreated       = "gameCreated"
	EventPlayerJoined      = "playerJoined"
	EventQuizMasterMessage = "quizMasterMessage"
	EventGameStateUpdate   = "gameStateUpdate"
	EventQuestionDisplay   = "questionDisplay"
	EventTimeUpdate        = "timeUpdate"
	EventAnswerSubmitted   = "answerSubmitted"
	EventAnswerUpdate      = "answerUpdate"
	EventQuestionResult    = "questionResult"
	EventGameComplete      = "gameComplete"
	EventError             = "error"
)

// Envelope is the framing for every outbound event.
type Envelope struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// GameCreatedPayload announces a freshly created game to the caller.
type GameCreatedPayload struct {
	GameID string `json:"gameId"`
}

// QuizMasterPayload carries informational flavor text. It is never
// state-bearing.
type QuizMasterPayload struct {
	Text string `json:"text"`
}

// LobbyUpdatePayload is the gameStateUpdate variant for roster changes while
// waiting for players (and for the terminal gameOver notice).
type LobbyUpdatePayload struct {
	State       GameState    `json:"state"`
	Message     string       `json:"message"`
	GameID      string       `json:"gameId"`
	Players     []PlayerInfo `json:"players"`
	PlayerCount int          `json:"playerCount"`
	MaxPlayers  int          `json:"maxPlayers"`
	CanStart    bool         `json:"canStart"`
}

// CountdownPayload is the gameStateUpdate variant for the pre-question
// countdown after a game starts.
type CountdownPayload struct {
	State     GameState `json:"state"`
	Message   string    `json:"message"`
	Countdown int       `json:"countdown"`
}

// AnswerWindowPayload is the gameStateUpdate variant announcing that answers
// are now being accepted.
type AnswerWindowPayload struct {
	State            GameState `json:"state"`
	Message          string    `json:"message"`
	TimeLimitSeconds int       `json:"timeLimitSeconds"`
}

// QuestionDisplayPayload presents a question without its correct answer.
type QuestionDisplayPayload struct {
	Question       QuestionView `json:"question"`
	QuestionNumber int          `json:"questionNumber"`
	TotalQuestions int          `json:"totalQuestions"`
	TimeLimit      int          `json:"timeLimit"`
	Players        []PlayerInfo `json:"players"`
}

// TimeUpdatePayload is the periodic countdown tick during the answer window.
type TimeUpdatePayload struct {
	Remaining     int `json:"remaining"`
	AnsweredCount int `json:"answeredCount"`
	TotalPlayers  int `json:"totalPlayers"`
}

// AnswerSubmittedPayload acknowledges a recorded answer to its submitter.
type AnswerSubmittedPayload struct {
	SelectedOption int       `json:"selectedOption"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// AnswerUpdatePayload broadcasts answer-collection progress.
type AnswerUpdatePayload struct {
	AnsweredCount int  `json:"answeredCount"`
	TotalPlayers  int  `json:"totalPlayers"`
	AllAnswered   bool `json:"allAnswered"`
}

// QuestionResultPayload reveals the correct answer and per-player outcomes.
type QuestionResultPayload struct {
	Question      QuestionView   `json:"question"`
	CorrectIndex  int            `json:"correctIndex"`
	Explanation   string         `json:"explanation"`
	PlayerResults []PlayerResult `json:"playerResults"`
	OptionCounts  map[int]int    `json:"optionCounts"`
}

// GameCompletePayload carries the final leaderboard and summary statistics.
type GameCompletePayload struct {
	FinalScores []PlayerResult `json:"finalScores"`
	Winner      *PlayerResult  `json:"winner"`
	Statistics  GameStatistics `json:"statistics"`
}

// ErrorPayload is a caller-only error message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewEnvelope wraps a typed payload for delivery.
func NewEnvelope(eventType string, payload any, at time.Time) Envelope {
	return Envelope{Type: eventType, Payload: payload, Timestamp: at}
}
