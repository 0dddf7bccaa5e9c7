package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-arena/internal/app"
	"quiz-arena/internal/domain"
	"quiz-arena/internal/infra/memory"
)

// fakeGateway records everything the registry delivers so tests can assert
// on broadcast content and ordering.
type fakeGateway struct {
	mu     sync.Mutex
	events []recordedEvent
	moves  [][2]string
	closed []string
}

type recordedEvent struct {
	GameID string
	Env    domain.Envelope
}

func (f *fakeGateway) Broadcast(gameID string, env domain.Envelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{GameID: gameID, Env: env})
}

func (f *fakeGateway) Send(connID string, env domain.Envelope) {}

func (f *fakeGateway) MoveRoom(oldGameID, newGameID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, [2]string{oldGameID, newGameID})
}

func (f *fakeGateway) CloseRoom(gameID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, gameID)
}

func (f *fakeGateway) eventTypes(gameID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var types []string
	for _, e := range f.events {
		if e.GameID == gameID {
			types = append(types, e.Env.Type)
		}
	}
	return types
}

func (f *fakeGateway) find(gameID, eventType string) (domain.Envelope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.GameID == gameID && e.Env.Type == eventType {
			return e.Env, true
		}
	}
	return domain.Envelope{}, false
}

func (f *fakeGateway) closedRooms() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.closed...)
}

func (f *fakeGateway) roomMoves() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]string(nil), f.moves...)
}

// waitFor polls cond until it holds or the deadline passes. Broadcast
// delivery happens on publisher goroutines, so assertions on delivered
// events must wait for them.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func waitForEvent(t *testing.T, f *fakeGateway, gameID, eventType string, timeout time.Duration) domain.Envelope {
	t.Helper()
	var env domain.Envelope
	waitFor(t, timeout, func() bool {
		var ok bool
		env, ok = f.find(gameID, eventType)
		return ok
	})
	return env
}

func testBank() domain.QuestionBank {
	return domain.QuestionBank{
		ID: "test-bank",
		Questions: []domain.Question{
			{ID: 1, Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectIndex: 1, Category: "Math", Explanation: "2 + 2 = 4."},
			{ID: 2, Prompt: "Largest planet?", Options: []string{"Earth", "Jupiter"}, CorrectIndex: 1, Category: "Space", Explanation: "Jupiter is the largest planet."},
		},
	}
}

func testSettings() app.Settings {
	s := app.DefaultSettings()
	s.AutoStartPlayers = 0
	// Keep manual control over transitions in registry-level tests.
	s.StartDelay = time.Minute
	return s
}

func newTestRegistry(s app.Settings) (*app.Registry, *fakeGateway) {
	gateway := &fakeGateway{}
	banks := memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{
		"test-bank": testBank(),
	}), time.Minute)
	return app.NewRegistry(gateway, banks, "test-bank", s, nil), gateway
}

func TestJoinCreatesGame(t *testing.T) {
	r, gateway := newTestRegistry(testSettings())

	info, snap, err := r.Join(context.Background(), "Alice", "c1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if info.Name != "Alice" || info.ID != "c1" {
		t.Fatalf("unexpected player info %+v", info)
	}
	if snap.PlayerCount != 1 || !snap.CanStart {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if _, ok := r.GetGame(snap.GameID); !ok {
		t.Fatalf("game %s not registered", snap.GameID)
	}
	waitForEvent(t, gateway, snap.GameID, domain.EventGameStateUpdate, time.Second)
}

func TestJoinFailsOnMalformedBank(t *testing.T) {
	bad := testBank()
	bad.Questions[0].CorrectIndex = 9
	gateway := &fakeGateway{}
	banks := memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{
		"test-bank": bad,
	}), time.Minute)
	r := app.NewRegistry(gateway, banks, "test-bank", testSettings(), nil)

	if _, _, err := r.Join(context.Background(), "Alice", "c1"); !errors.Is(err, domain.ErrBankMalformed) {
		t.Fatalf("expected ErrBankMalformed, got %v", err)
	}
	if _, ok := r.ActiveGame(); ok {
		t.Fatal("no game may be created from a malformed bank")
	}
}

func TestAdvanceQuestionReportsTerminal(t *testing.T) {
	r, _ := newTestRegistry(testSettings())

	_, snap, err := r.Join(context.Background(), "Alice", "c1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, ok := r.AdvanceQuestion("missing"); ok {
		t.Fatal("advance of unknown game must not report success")
	}

	r.SetState(snap.GameID, domain.StateShowingResults)
	done, ok := r.AdvanceQuestion(snap.GameID)
	if !ok || done {
		t.Fatalf("expected non-terminal advance, got done=%v ok=%v", done, ok)
	}

	r.SetState(snap.GameID, domain.StateShowingResults)
	done, ok = r.AdvanceQuestion(snap.GameID)
	if !ok || !done {
		// The bank holds two questions; the second advance ends the game.
		t.Fatalf("expected terminal advance, got done=%v ok=%v", done, ok)
	}
	got, _ := r.GetGame(snap.GameID)
	if got.State != domain.StateGameOver {
		t.Fatalf("expected gameOver, got %s", got.State)
	}
}

func TestJoinRejectsEmptyName(t *testing.T) {
	r, _ := newTestRegistry(testSettings())
	if _, _, err := r.Join(context.Background(), "   ", "c1"); !errors.Is(err, domain.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestJoinRejectsWhenFull(t *testing.T) {
	s := testSettings()
	s.MaxPlayers = 2
	r, _ := newTestRegistry(s)

	ctx := context.Background()
	if _, _, err := r.Join(ctx, "Alice", "c1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, _, err := r.Join(ctx, "Bob", "c2"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, _, err := r.Join(ctx, "Carol", "c3"); !errors.Is(err, domain.ErrGameFull) {
		t.Fatalf("expected ErrGameFull, got %v", err)
	}
}

func TestRejoinSameNameReplacesConnection(t *testing.T) {
	r, _ := newTestRegistry(testSettings())
	ctx := context.Background()

	if _, _, err := r.Join(ctx, "Alice", "c1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	info, snap, err := r.Join(ctx, "alice", "c2")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if info.ID != "c2" || info.Name != "Alice" {
		t.Fatalf("expected reconnect to keep name and adopt new connection, got %+v", info)
	}
	if snap.PlayerCount != 1 {
		t.Fatalf("reconnect must not grow the roster, got %d players", snap.PlayerCount)
	}
}

func TestJoinRejectedOnceStarted(t *testing.T) {
	r, _ := newTestRegistry(testSettings())
	ctx := context.Background()

	_, snap, err := r.Join(ctx, "Alice", "c1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := r.Start(snap.GameID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := r.Join(ctx, "Bob", "c2"); !errors.Is(err, domain.ErrGameInProgress) {
		t.Fatalf("expected ErrGameInProgress, got %v", err)
	}
	if err := r.Start(snap.GameID); !errors.Is(err, domain.ErrCannotStart) {
		t.Fatalf("expected ErrCannotStart on double start, got %v", err)
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	r, _ := newTestRegistry(testSettings())
	ctx := context.Background()

	_, snap, err := r.Join(ctx, "Alice", "c1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, _, err := r.SubmitAnswer(snap.GameID, "c1", 1); !errors.Is(err, domain.ErrAnswersClosed) {
		t.Fatalf("expected ErrAnswersClosed before the window opens, got %v", err)
	}

	r.SetState(snap.GameID, domain.StateWaitingForAnswers)

	if _, _, err := r.SubmitAnswer(snap.GameID, "ghost", 1); !errors.Is(err, domain.ErrNotInGame) {
		t.Fatalf("expected ErrNotInGame, got %v", err)
	}
	if _, _, err := r.SubmitAnswer("missing", "c1", 1); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}

	answer, progress, err := r.SubmitAnswer(snap.GameID, "c1", 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if answer.SelectedOption != 1 || !progress.AllAnswered {
		t.Fatalf("unexpected submission result %+v %+v", answer, progress)
	}
	if _, _, err := r.SubmitAnswer(snap.GameID, "c1", 2); !errors.Is(err, domain.ErrAnswersClosed) {
		// The lone player's answer already closed the question.
		t.Fatalf("expected ErrAnswersClosed after results, got %v", err)
	}
}

func TestDuplicateAnswerRejected(t *testing.T) {
	r, _ := newTestRegistry(testSettings())
	ctx := context.Background()

	_, snap, err := r.Join(ctx, "Alice", "c1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, _, err := r.Join(ctx, "Bob", "c2"); err != nil {
		t.Fatalf("join: %v", err)
	}
	r.SetState(snap.GameID, domain.StateWaitingForAnswers)

	if _, _, err := r.SubmitAnswer(snap.GameID, "c1", 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := r.SubmitAnswer(snap.GameID, "c1", 1); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
}

func TestAllAnsweredCommitsResultsOnce(t *testing.T) {
	r, gateway := newTestRegistry(testSettings())
	ctx := context.Background()

	_, snap, err := r.Join(ctx, "Alice", "c1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, _, err := r.Join(ctx, "Bob", "c2"); err != nil {
		t.Fatalf("join: %v", err)
	}
	r.SetState(snap.GameID, domain.StateWaitingForAnswers)

	if _, progress, err := r.SubmitAnswer(snap.GameID, "c1", 1); err != nil || progress.AllAnswered {
		t.Fatalf("first answer should not complete the question: %+v %v", progress, err)
	}
	_, progress, err := r.SubmitAnswer(snap.GameID, "c2", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !progress.AllAnswered {
		t.Fatalf("second answer should complete the question, got %+v", progress)
	}

	got, _ := r.GetGame(snap.GameID)
	if got.State != domain.StateShowingResults {
		t.Fatalf("expected showingResults, got %s", got.State)
	}

	env := waitForEvent(t, gateway, snap.GameID, domain.EventQuestionResult, time.Second)
	result, ok := env.Payload.(domain.QuestionResultPayload)
	if !ok {
		t.Fatalf("unexpected payload %T", env.Payload)
	}
	if result.CorrectIndex != 1 {
		t.Fatalf("expected correct index 1, got %d", result.CorrectIndex)
	}
	if len(result.PlayerResults) != 2 {
		t.Fatalf("expected 2 player results, got %d", len(result.PlayerResults))
	}
	alice, bob := result.PlayerResults[0], result.PlayerResults[1]
	if !alice.IsCorrect || alice.ScoreGained < 100 {
		t.Fatalf("expected Alice to score, got %+v", alice)
	}
	if bob.IsCorrect || bob.ScoreGained != 0 {
		t.Fatalf("expected Bob to score zero, got %+v", bob)
	}
	if result.OptionCounts[0] != 1 || result.OptionCounts[1] != 1 || result.OptionCounts[2] != 0 {
		t.Fatalf("unexpected option counts %+v", result.OptionCounts)
	}
}

func TestLastDisconnectRemovesGame(t *testing.T) {
	r, gateway := newTestRegistry(testSettings())

	_, snap, err := r.Join(context.Background(), "Alice", "c1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !r.Disconnect("c1") {
		t.Fatal("expected disconnect to find the player")
	}
	if _, ok := r.GetGame(snap.GameID); ok {
		t.Fatal("expected game removed once roster empties")
	}
	waitFor(t, time.Second, func() bool {
		for _, id := range gateway.closedRooms() {
			if id == snap.GameID {
				return true
			}
		}
		return false
	})
	if r.Disconnect("c1") {
		t.Fatal("second disconnect should be a no-op")
	}
}

func TestDisconnectCanCompleteQuestion(t *testing.T) {
	r, gateway := newTestRegistry(testSettings())
	ctx := context.Background()

	_, snap, err := r.Join(ctx, "Alice", "c1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, _, err := r.Join(ctx, "Bob", "c2"); err != nil {
		t.Fatalf("join: %v", err)
	}
	r.SetState(snap.GameID, domain.StateWaitingForAnswers)

	if _, _, err := r.SubmitAnswer(snap.GameID, "c1", 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// Bob leaving makes Alice's answer the full set.
	r.Disconnect("c2")

	got, _ := r.GetGame(snap.GameID)
	if got.State != domain.StateShowingResults {
		t.Fatalf("expected showingResults after departure, got %s", got.State)
	}
	waitForEvent(t, gateway, snap.GameID, domain.EventQuestionResult, time.Second)
}

func TestBroadcastsDeliveredInCommitOrder(t *testing.T) {
	r, gateway := newTestRegistry(testSettings())
	ctx := context.Background()

	_, snap, err := r.Join(ctx, "Alice", "c1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, _, err := r.Join(ctx, "Bob", "c2"); err != nil {
		t.Fatalf("join: %v", err)
	}
	r.SetState(snap.GameID, domain.StateWaitingForAnswers)
	if _, _, err := r.SubmitAnswer(snap.GameID, "c1", 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := r.SubmitAnswer(snap.GameID, "c2", 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitForEvent(t, gateway, snap.GameID, domain.EventQuestionResult, time.Second)

	types := gateway.eventTypes(snap.GameID)
	firstUpdate, result := -1, -1
	for i, typ := range types {
		if typ == domain.EventAnswerUpdate && firstUpdate == -1 {
			firstUpdate = i
		}
		if typ == domain.EventQuestionResult {
			result = i
		}
	}
	if firstUpdate == -1 || result == -1 || firstUpdate > result {
		t.Fatalf("expected answer updates before the result, got %v", types)
	}
}
