package app

import (
	"context"
	"log"
	"time"

	"quiz-arena/internal/domain"
)

// runGame is the timer loop for one game: the sole driver of time-gated
// state transitions from Starting through GameOver. Every wake-up
// re-validates that the game still exists and is in the expected state, so
// a deleted or already-transitioned game makes the loop exit quietly. At
// most one loop runs per game; it is launched once by Start and stops when
// the game's lifecycle context is cancelled on deletion or supersession.
// A panic in any single phase is contained there: the loop backs off one
// tick and resumes from whatever state the game is actually in, so a live
// game is never stranded without its timer.
func (r *Registry) runGame(ctx context.Context, gameID string) {
	if !r.sleep(ctx, r.settings.StartDelay) {
		return
	}

	for {
		done, exit := r.runPhase(ctx, gameID)
		if exit {
			return
		}
		if done {
			break
		}
	}

	// Terminal phase: leave the final leaderboard up, then hand the room a
	// fresh game for the next cohort.
	if !r.sleep(ctx, r.settings.ResetDelay) {
		return
	}
	r.resetAfterGameOver(ctx, gameID)
}

// runPhase advances the game from its current state. Dispatching on observed
// state rather than a fixed phase sequence lets the loop pick up where the
// game really is after a recovered panic or an answer-path transition.
// done reports GameOver; exit reports cancellation or a vanished game.
func (r *Registry) runPhase(ctx context.Context, gameID string) (done, exit bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("timer loop for game %s recovered from panic: %v", gameID, p)
			done = false
			exit = !r.sleep(ctx, r.settings.Tick)
		}
	}()

	r.mu.Lock()
	g, ok := r.games[gameID]
	var state domain.GameState
	if ok {
		state = g.State
	}
	r.mu.Unlock()
	if !ok {
		return false, true
	}

	switch state {
	case domain.StateStarting:
		return false, !r.beginQuestion(gameID)
	case domain.StateQuestionDisplay:
		if !r.sleep(ctx, r.settings.DisplayDelay) {
			return false, true
		}
		return false, !r.openAnswers(gameID)
	case domain.StateWaitingForAnswers:
		return false, !r.runCountdown(ctx, gameID)
	case domain.StateShowingResults:
		if !r.sleep(ctx, r.settings.ResultsDelay) {
			return false, true
		}
		done, ok := r.advanceQuestion(gameID)
		if !ok {
			return false, true
		}
		if done {
			return true, false
		}
		return false, !r.beginQuestion(gameID)
	case domain.StateGameOver:
		return true, false
	default:
		return false, true
	}
}

// sleep waits d or reports cancellation.
func (r *Registry) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// beginQuestion starts a question cycle: resets per-question answer state,
// stamps the display start, and broadcasts the question without its answer.
func (r *Registry) beginQuestion(gameID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[gameID]
	if !ok {
		return false
	}
	if g.State != domain.StateStarting && g.State != domain.StateShowingResults {
		return false
	}
	question, ok := g.currentQuestion()
	if !ok {
		return false
	}

	g.resetQuestionState()
	g.State = domain.StateQuestionDisplay
	g.QuestionStart = r.now()

	g.publish(domain.NewEnvelope(domain.EventQuestionDisplay, domain.QuestionDisplayPayload{
		Question:       question.View(),
		QuestionNumber: g.CurrentIndex + 1,
		TotalQuestions: g.TotalQuestions,
		TimeLimit:      int(g.TimeLimit.Seconds()),
		Players:        g.playerInfos(),
	}, r.now()))
	r.publishMasterLocked(g, r.master.QuestionIntro(g.CurrentIndex+1, g.TotalQuestions, question.Category))
	return true
}

// openAnswers flips QuestionDisplay -> WaitingForAnswers and restamps the
// question start so the answer window is independent of the display window.
func (r *Registry) openAnswers(gameID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[gameID]
	if !ok || g.State != domain.StateQuestionDisplay {
		return false
	}
	g.State = domain.StateWaitingForAnswers
	g.QuestionStart = r.now()

	g.publish(domain.NewEnvelope(domain.EventGameStateUpdate, domain.AnswerWindowPayload{
		State:            domain.StateWaitingForAnswers,
		Message:          "Answers open",
		TimeLimitSeconds: int(g.TimeLimit.Seconds()),
	}, r.now()))
	return true
}

// runCountdown emits per-tick time updates during the answer window and
// commits the results transition when the limit elapses. It stops early the
// moment the answer path has already moved the game out of
// WaitingForAnswers. Returns false only when the game is gone or the loop
// is cancelled.
func (r *Registry) runCountdown(ctx context.Context, gameID string) bool {
	ticker := time.NewTicker(r.settings.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}

		alive, closed := r.countdownTick(gameID)
		if !alive {
			return false
		}
		if closed {
			return true
		}
	}
}

// countdownTick handles one wake-up of the answer-window countdown under the
// lock. The deferred unlock keeps the registry usable even if the results
// computation panics out of this frame.
func (r *Registry) countdownTick(gameID string) (alive, closed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[gameID]
	if !ok {
		return false, false
	}
	if g.State != domain.StateWaitingForAnswers {
		// All players answered; the submission path already committed the
		// results transition.
		return true, true
	}
	now := r.now()
	if now.Sub(g.QuestionStart) >= g.TimeLimit {
		r.publishMasterLocked(g, r.master.TimeUp())
		r.finishQuestionLocked(g)
		return true, true
	}
	remaining := g.remainingSeconds(now)
	g.publish(domain.NewEnvelope(domain.EventTimeUpdate, domain.TimeUpdatePayload{
		Remaining:     remaining,
		AnsweredCount: len(g.Answers),
		TotalPlayers:  len(g.Players),
	}, now))
	if remaining > 0 && remaining <= 10 {
		r.publishMasterLocked(g, r.master.TimeWarning(remaining))
	}
	return true, false
}

// advanceQuestion moves past ShowingResults: either into the next question
// cycle or, once the configured question count is exhausted, into GameOver
// with the final leaderboard. done reports the terminal case; ok is false
// when the game no longer exists or is not showing results.
func (r *Registry) advanceQuestion(gameID string) (done, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, exists := r.games[gameID]
	if !exists || g.State != domain.StateShowingResults {
		return false, false
	}
	g.CurrentIndex++
	if g.CurrentIndex >= g.TotalQuestions {
		r.completeGameLocked(g)
		return true, true
	}
	return false, true
}

// resetAfterGameOver creates a replacement game for the next cohort,
// re-homing the room, provided the finished game is still the active one.
func (r *Registry) resetAfterGameOver(ctx context.Context, gameID string) {
	r.mu.Lock()
	g, ok := r.games[gameID]
	stillActive := ok && r.activeID == gameID && g.State == domain.StateGameOver
	r.mu.Unlock()
	if !stillActive {
		return
	}

	bank, err := r.banks.GetBank(ctx, r.bankID)
	if err == nil {
		err = bank.Validate()
	}
	if err != nil {
		log.Printf("replacement game for %s not created: %v", gameID, err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[gameID]; !ok || r.activeID != gameID {
		return
	}
	fresh := r.installGameLocked(bank.Questions)
	fresh.publish(domain.NewEnvelope(domain.EventGameCreated, domain.GameCreatedPayload{GameID: fresh.ID}, r.now()))
	r.publishMasterLocked(fresh, r.master.NewGameReady())
	r.publishLobbyLocked(fresh, "new game ready")
}
