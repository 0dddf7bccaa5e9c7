package app

import (
	"errors"
	"fmt"
	"strings"

	"quiz-arena/internal/domain"
)

// QuizMaster produces the human-facing commentary that accompanies game
// events. The text is informational only and never feeds back into session
// state, so the rule-based generator here can be swapped for a language
// model without touching the state machine.
type QuizMaster struct{}

func NewQuizMaster() *QuizMaster {
	return &QuizMaster{}
}

// GenerateReply answers free-form chat text with a canned response.
func (m *QuizMaster) GenerateReply(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case lower == "":
		return "Say something and I'll do my best to answer!"
	case strings.Contains(lower, "hello"), strings.Contains(lower, "hi"):
		return "Hello there! Ready to test your trivia knowledge?"
	case strings.Contains(lower, "help"):
		return "Tell me your name to join, then pick an option when a question appears. Fast correct answers score more!"
	case strings.Contains(lower, "score"):
		return "Correct answers earn 100 points plus a speed bonus. Watch the leaderboard after each question!"
	case strings.Contains(lower, "rules"):
		return "Everyone answers the same questions at the same time. One answer per question, and the clock is ticking!"
	default:
		return "I'm your Quiz Master! Ask for 'help' if you're not sure what to do."
	}
}

func (m *QuizMaster) Welcome() string {
	return "🎯 Welcome to the Ultimate Quiz Challenge! I'm your Quiz Master. Tell me your name to join the game!"
}

func (m *QuizMaster) PlayerJoined(name string, count, max int) string {
	return fmt.Sprintf("🎉 Welcome %s! You've joined the quiz game. Players: %d/%d", name, count, max)
}

func (m *QuizMaster) PlayerLeft(count, max int) string {
	return fmt.Sprintf("👋 A player has left the game. Players remaining: %d/%d", count, max)
}

func (m *QuizMaster) GameStarting(players, questions, countdown int) string {
	return fmt.Sprintf("🚀 Let the Quiz Challenge begin! We have %d brave contestants. Get ready for %d exciting questions! First question coming up in %d seconds...", players, questions, countdown)
}

func (m *QuizMaster) QuestionIntro(number, total int, category string) string {
	return fmt.Sprintf("📚 Question %d of %d: %s", number, total, category)
}

func (m *QuizMaster) TimeWarning(remaining int) string {
	return fmt.Sprintf("⏰ %d seconds remaining!", remaining)
}

func (m *QuizMaster) TimeUp() string {
	return "⏰ Time's up! Let's see the results..."
}

func (m *QuizMaster) QuestionResults(correct, total int, answer, explanation string) string {
	return fmt.Sprintf("📊 Results: %d/%d got it right! The correct answer was: %s. %s", correct, total, answer, explanation)
}

func (m *QuizMaster) Winner(name string, score int) string {
	return fmt.Sprintf("🏆 GAME OVER! Congratulations %s! You are the Quiz Champion with %d points! 🎉", name, score)
}

func (m *QuizMaster) GameOverNoWinner() string {
	return "🏁 Game complete! Thanks everyone for playing. A new game will start soon..."
}

func (m *QuizMaster) NewGameReady() string {
	return "🆕 A new quiz game is ready! Tell me your name to join!"
}

// Rejection translates a validation error into the caller-only explanation
// shown to the acting connection.
func (m *QuizMaster) Rejection(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyName):
		return "❌ Please provide a valid name to join the game!"
	case errors.Is(err, domain.ErrGameFull):
		return "❌ Sorry, the game is full! Please wait for the next round."
	case errors.Is(err, domain.ErrGameInProgress):
		return "❌ Sorry, the game has already started! Please wait for the next round."
	case errors.Is(err, domain.ErrAlreadyAnswered), errors.Is(err, domain.ErrAnswersClosed), errors.Is(err, domain.ErrNotInGame):
		return "❌ Could not submit your answer. Time might be up or you already answered."
	case errors.Is(err, domain.ErrCannotStart):
		return "❌ Cannot start the game right now."
	case errors.Is(err, domain.ErrGameNotFound):
		return "❌ That game is no longer running."
	default:
		return "❌ An error occurred. Please try again."
	}
}
