package app

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"quiz-arena/internal/domain"
	"github.com/google/uuid"
)

// Gateway is the broadcast boundary the core calls to notify room members or
// a single connection. The transport layer implements it; the registry never
// holds its lock while a gateway call is in flight for room broadcasts (they
// are drained by per-game publisher goroutines).
type Gateway interface {
	Broadcast(gameID string, env domain.Envelope)
	Send(connID string, env domain.Envelope)
	// MoveRoom re-homes all members of an old game's room when a
	// replacement game supersedes it.
	MoveRoom(oldGameID, newGameID string)
	CloseRoom(gameID string)
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// PresenceStore marks game liveness in an external store (e.g. Redis). Calls
// are best-effort and never affect session state.
type PresenceStore interface {
	MarkActive(gameID string)
	Clear(gameID string)
}

// Settings carries the tunable timing and sizing knobs of a game.
type Settings struct {
	MaxPlayers        int
	TotalQuestions    int
	QuestionTimeLimit time.Duration
	StartDelay        time.Duration
	DisplayDelay      time.Duration
	ResultsDelay      time.Duration
	ResetDelay        time.Duration
	Tick              time.Duration
	AutoStartPlayers  int
	AutoStartDelay    time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:        10,
		TotalQuestions:    10,
		QuestionTimeLimit: 60 * time.Second,
		StartDelay:        3 * time.Second,
		DisplayDelay:      5 * time.Second,
		ResultsDelay:      7 * time.Second,
		ResetDelay:        10 * time.Second,
		Tick:              time.Second,
		AutoStartPlayers:  2,
		AutoStartDelay:    5 * time.Second,
	}
}

// AnswerProgress reports answer-collection state after a submission.
type AnswerProgress struct {
	AnsweredCount int
	TotalPlayers  int
	AllAnswered   bool
}

// Registry owns every active game. A single mutex guards all game state;
// request handlers and the per-game timer loops mutate concurrently through
// it. Broadcasts are committed to per-game queues inside the critical
// section and delivered outside it, so observers see transitions in commit
// order.
type Registry struct {
	mu    sync.Mutex
	games map[string]*Game
	// activeID points at the single joinable game (single-active-game
	// policy); the map is still keyed by id so the policy can change
	// without a rewrite.
	activeID string

	gateway  Gateway
	banks    BankRepository
	presence PresenceStore
	master   *QuizMaster
	bankID   string
	settings Settings
	now      func() time.Time
}

// NewRegistry wires the session manager. presence may be nil.
func NewRegistry(gateway Gateway, banks BankRepository, bankID string, settings Settings, presence PresenceStore) *Registry {
	return &Registry{
		games:    make(map[string]*Game),
		gateway:  gateway,
		banks:    banks,
		presence: presence,
		master:   NewQuizMaster(),
		bankID:   bankID,
		settings: settings,
		now:      time.Now,
	}
}

// Master exposes the quiz-master text generator for handlers.
func (r *Registry) Master() *QuizMaster {
	return r.master
}

// Connect ensures an active game exists for a newly attached connection and
// reports whether one was created.
func (r *Registry) Connect(ctx context.Context, connID string) (Snapshot, bool, error) {
	r.mu.Lock()
	if g, ok := r.activeGameLocked(); ok {
		snap := g.snapshot()
		r.mu.Unlock()
		return snap, false, nil
	}
	r.mu.Unlock()

	snap, err := r.createGame(ctx)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// ActiveGame returns a snapshot of the joinable game, if any.
func (r *Registry) ActiveGame() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.activeGameLocked()
	if !ok {
		return Snapshot{}, false
	}
	return g.snapshot(), true
}

// GetGame returns a snapshot of the game with the given id.
func (r *Registry) GetGame(gameID string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[gameID]
	if !ok {
		return Snapshot{}, false
	}
	return g.snapshot(), true
}

// Join adds a player to the active game, creating one if none exists. A name
// matching an existing player case-insensitively is treated as a reconnect:
// the stored connection id is updated in place.
func (r *Registry) Join(ctx context.Context, name, connID string) (domain.PlayerInfo, Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.PlayerInfo{}, Snapshot{}, domain.ErrEmptyName
	}

	r.mu.Lock()
	_, ok := r.activeGameLocked()
	r.mu.Unlock()
	if !ok {
		if _, err := r.createGame(ctx); err != nil {
			return domain.PlayerInfo{}, Snapshot{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.activeGameLocked()
	if !ok {
		return domain.PlayerInfo{}, Snapshot{}, domain.ErrGameNotFound
	}
	if g.State != domain.StateWaitingForPlayers {
		return domain.PlayerInfo{}, Snapshot{}, domain.ErrGameInProgress
	}

	if existing := g.playerByName(name); existing != nil {
		existing.ID = connID
		r.publishLobbyLocked(g, "player reconnected")
		return existing.Info(), g.snapshot(), nil
	}

	if g.isFull() {
		return domain.PlayerInfo{}, Snapshot{}, domain.ErrGameFull
	}

	player := &domain.Player{ID: connID, Name: name, CurrentAnswer: -1, JoinedAt: r.now()}
	g.Players = append(g.Players, player)
	log.Printf("player %s joined game %s (%d/%d)", name, g.ID, len(g.Players), g.MaxPlayers)

	r.publishMasterLocked(g, r.master.PlayerJoined(name, len(g.Players), g.MaxPlayers))
	r.publishLobbyLocked(g, "player joined")

	if r.settings.AutoStartPlayers > 0 && len(g.Players) >= r.settings.AutoStartPlayers && g.canStart() && !g.autoStart {
		g.autoStart = true
		go r.autoStartAfterGrace(g.lifecycle, g.ID)
	}
	return player.Info(), g.snapshot(), nil
}

// Start begins the game, gated on CanStart, and launches its timer loop.
func (r *Registry) Start(gameID string) error {
	r.mu.Lock()
	g, ok := r.games[gameID]
	if !ok {
		r.mu.Unlock()
		return domain.ErrGameNotFound
	}
	if !g.canStart() {
		r.mu.Unlock()
		return domain.ErrCannotStart
	}
	g.State = domain.StateStarting

	countdown := int(r.settings.StartDelay.Seconds())
	r.publishMasterLocked(g, r.master.GameStarting(len(g.Players), g.TotalQuestions, countdown))
	g.publish(domain.NewEnvelope(domain.EventGameStateUpdate, domain.CountdownPayload{
		State:     domain.StateStarting,
		Message:   "Game starting...",
		Countdown: countdown,
	}, r.now()))
	log.Printf("starting game %s with %d players", gameID, len(g.Players))
	lifecycle := g.lifecycle
	r.mu.Unlock()

	go r.runGame(lifecycle, gameID)
	return nil
}

// SubmitAnswer records a player's answer for the current question. The
// returned progress tells the caller whether this submission completed the
// all-answered condition; the results transition itself is already committed
// here under the same lock the timer loop uses, so the race between the two
// triggers resolves to exactly one winner.
func (r *Registry) SubmitAnswer(gameID, connID string, option int) (domain.Answer, AnswerProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[gameID]
	if !ok {
		return domain.Answer{}, AnswerProgress{}, domain.ErrGameNotFound
	}
	if g.State != domain.StateWaitingForAnswers {
		return domain.Answer{}, AnswerProgress{}, domain.ErrAnswersClosed
	}
	player := g.playerByConn(connID)
	if player == nil {
		return domain.Answer{}, AnswerProgress{}, domain.ErrNotInGame
	}
	if player.HasAnswered {
		return domain.Answer{}, AnswerProgress{}, domain.ErrAlreadyAnswered
	}

	answer := domain.Answer{PlayerID: connID, SelectedOption: option, AnsweredAt: r.now()}
	g.Answers = append(g.Answers, answer)
	player.HasAnswered = true
	player.CurrentAnswer = option

	progress := AnswerProgress{
		AnsweredCount: len(g.Answers),
		TotalPlayers:  len(g.Players),
		AllAnswered:   g.allAnswered(),
	}
	g.publish(domain.NewEnvelope(domain.EventAnswerUpdate, domain.AnswerUpdatePayload{
		AnsweredCount: progress.AnsweredCount,
		TotalPlayers:  progress.TotalPlayers,
		AllAnswered:   progress.AllAnswered,
	}, r.now()))

	if progress.AllAnswered {
		r.finishQuestionLocked(g)
	}
	return answer, progress, nil
}

// Disconnect removes the player owning connID from whichever game holds it.
// The game is deleted entirely when its roster empties; its timer loop
// observes the deletion on its next wake and exits without broadcasting.
func (r *Registry) Disconnect(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range r.games {
		idx := -1
		for i, p := range g.Players {
			if p.ID == connID {
				idx = i
				break
			}
		}
		if idx == -1 {
			continue
		}
		g.Players = append(g.Players[:idx], g.Players[idx+1:]...)
		// Keep the current-question answer set consistent with the roster.
		for i := range g.Answers {
			if g.Answers[i].PlayerID == connID {
				g.Answers = append(g.Answers[:i], g.Answers[i+1:]...)
				break
			}
		}
		log.Printf("player %s removed from game %s", connID, g.ID)

		if len(g.Players) == 0 {
			r.removeGameLocked(g)
			return true
		}
		r.publishMasterLocked(g, r.master.PlayerLeft(len(g.Players), g.MaxPlayers))
		r.publishLobbyLocked(g, "player left")
		// The departure may have completed the all-answered condition for
		// the remaining roster.
		if g.State == domain.StateWaitingForAnswers && g.allAnswered() {
			r.finishQuestionLocked(g)
		}
		return true
	}
	return false
}

// AdvanceQuestion moves the game to the next question or to game over. It is
// a transition primitive driven by the timer loop and exposed for tooling
// and tests. ok reports whether the transition applied; done reports that
// the advance ended the game.
func (r *Registry) AdvanceQuestion(gameID string) (done, ok bool) {
	return r.advanceQuestion(gameID)
}

// SetState forces a state transition. Internal primitive; normal flow goes
// through the guarded transitions.
func (r *Registry) SetState(gameID string, state domain.GameState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[gameID]
	if !ok {
		return false
	}
	g.State = state
	return true
}

func (r *Registry) activeGameLocked() (*Game, bool) {
	g, ok := r.games[r.activeID]
	if !ok || g.State == domain.StateGameOver {
		return nil, false
	}
	return g, true
}

// createGame snapshots the question bank (I/O, outside the lock) and
// installs a fresh game, superseding any previous active one.
func (r *Registry) createGame(ctx context.Context) (Snapshot, error) {
	bank, err := r.banks.GetBank(ctx, r.bankID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := bank.Validate(); err != nil {
		return Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have raced us here.
	if g, ok := r.activeGameLocked(); ok {
		return g.snapshot(), nil
	}
	g := r.installGameLocked(bank.Questions)
	g.publish(domain.NewEnvelope(domain.EventGameCreated, domain.GameCreatedPayload{GameID: g.ID}, r.now()))
	return g.snapshot(), nil
}

func (r *Registry) installGameLocked(questions []domain.Question) *Game {
	old := r.games[r.activeID]
	g := newGame(uuid.NewString(), questions, r.settings, r.now())
	r.games[g.ID] = g
	r.activeID = g.ID
	go r.drainEvents(g)
	if old != nil {
		r.teardownLocked(old)
		r.gateway.MoveRoom(old.ID, g.ID)
	}
	if r.presence != nil {
		r.presence.MarkActive(g.ID)
	}
	log.Printf("created game %s with %d questions", g.ID, len(g.Questions))
	return g
}

// drainEvents is the single publisher for one game's broadcast queue. It
// serializes room broadcasts in the order they were committed.
func (r *Registry) drainEvents(g *Game) {
	for env := range g.events {
		r.gateway.Broadcast(g.ID, env)
	}
}

func (r *Registry) teardownLocked(g *Game) {
	g.cancel()
	g.closed = true
	close(g.events)
	delete(r.games, g.ID)
	if r.activeID == g.ID {
		r.activeID = ""
	}
	if r.presence != nil {
		r.presence.Clear(g.ID)
	}
}

func (r *Registry) removeGameLocked(g *Game) {
	r.teardownLocked(g)
	r.gateway.CloseRoom(g.ID)
	log.Printf("game %s removed - no players remaining", g.ID)
}

func (r *Registry) publishMasterLocked(g *Game, text string) {
	g.publish(domain.NewEnvelope(domain.EventQuizMasterMessage, domain.QuizMasterPayload{Text: text}, r.now()))
}

func (r *Registry) publishLobbyLocked(g *Game, message string) {
	g.publish(domain.NewEnvelope(domain.EventGameStateUpdate, domain.LobbyUpdatePayload{
		State:       g.State,
		Message:     message,
		GameID:      g.ID,
		Players:     g.playerInfos(),
		PlayerCount: len(g.Players),
		MaxPlayers:  g.MaxPlayers,
		CanStart:    g.canStart(),
	}, r.now()))
}

// finishQuestionLocked commits WaitingForAnswers -> ShowingResults exactly
// once. Both the timer loop and the answer path call it; the state guard
// makes whichever trigger arrives second a no-op.
func (r *Registry) finishQuestionLocked(g *Game) {
	if g.State != domain.StateWaitingForAnswers {
		return
	}
	question, ok := g.currentQuestion()
	if !ok {
		return
	}
	g.State = domain.StateShowingResults

	result := domain.QuestionResultPayload{
		Question:     question.View(),
		CorrectIndex: question.CorrectIndex,
		Explanation:  question.Explanation,
		OptionCounts: make(map[int]int, len(question.Options)),
	}
	for i := range question.Options {
		result.OptionCounts[i] = 0
	}

	correctCount := 0
	limitSeconds := int(g.TimeLimit.Seconds())
	for _, p := range g.Players {
		selected := -1
		answeredAt := time.Time{}
		if a := g.answerFor(p.ID); a != nil {
			selected = a.SelectedOption
			answeredAt = a.AnsweredAt
		}
		isCorrect := selected == question.CorrectIndex
		gained := 0
		if isCorrect {
			gained = ComputeScore(true, answeredAt, g.QuestionStart, limitSeconds)
			p.Score += gained
			correctCount++
		}
		result.PlayerResults = append(result.PlayerResults, domain.PlayerResult{
			PlayerID:       p.ID,
			PlayerName:     p.Name,
			SelectedOption: selected,
			IsCorrect:      isCorrect,
			ScoreGained:    gained,
			TotalScore:     p.Score,
		})
		if selected >= 0 && selected < len(question.Options) {
			result.OptionCounts[selected]++
		}
	}

	g.publish(domain.NewEnvelope(domain.EventQuestionResult, result, r.now()))
	r.publishMasterLocked(g, r.master.QuestionResults(
		correctCount, len(g.Players), question.Options[question.CorrectIndex], question.Explanation))
}

// completeGameLocked finalizes the leaderboard on the GameOver transition.
// Players are ordered by score descending; ties keep original join order.
func (r *Registry) completeGameLocked(g *Game) {
	g.State = domain.StateGameOver

	ordered := make([]*domain.Player, len(g.Players))
	copy(ordered, g.Players)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	final := domain.GameCompletePayload{
		Statistics: domain.GameStatistics{
			DurationSeconds: r.now().Sub(g.CreatedAt).Seconds(),
			TotalQuestions:  g.TotalQuestions,
			TotalPlayers:    len(g.Players),
		},
	}
	total := 0
	for rank, p := range ordered {
		final.FinalScores = append(final.FinalScores, domain.PlayerResult{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Rank:       rank + 1,
			TotalScore: p.Score,
		})
		total += p.Score
	}
	if len(ordered) > 0 {
		winner := final.FinalScores[0]
		final.Winner = &winner
		final.Statistics.AverageScore = float64(total) / float64(len(ordered))
	}

	r.publishLobbyLocked(g, "game over")
	g.publish(domain.NewEnvelope(domain.EventGameComplete, final, r.now()))
	if final.Winner != nil {
		r.publishMasterLocked(g, r.master.Winner(final.Winner.PlayerName, final.Winner.TotalScore))
	} else {
		r.publishMasterLocked(g, r.master.GameOverNoWinner())
	}
	log.Printf("game %s complete", g.ID)
}

// autoStartAfterGrace starts the game once the grace period passes, unless
// the game is torn down first.
func (r *Registry) autoStartAfterGrace(ctx context.Context, gameID string) {
	// Give stragglers a moment to join before kicking off.
	select {
	case <-time.After(r.settings.AutoStartDelay):
	case <-ctx.Done():
		return
	}
	if err := r.Start(gameID); err != nil {
		log.Printf("auto-start of game %s skipped: %v", gameID, err)
	}
}
