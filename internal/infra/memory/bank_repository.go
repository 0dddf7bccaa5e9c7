package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-arena/internal/domain"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches question-bank content from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// BankRepository keeps validated question banks in memory under a jittered
// TTL. Concurrent misses for the same bank collapse into a single loader
// call, and a bank that fails validation is never cached, so a bad row can
// only ever fail a load, not a running game.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu      sync.RWMutex
	entries map[string]bankEntry
	rnd     *rand.Rand
}

type bankEntry struct {
	bank      domain.QuestionBank
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]bankEntry),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	if bank, ok := r.cached(bankID); ok {
		return bank, nil
	}
	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Another flight may have filled the cache while we queued.
		if bank, ok := r.cached(bankID); ok {
			return bank, nil
		}
		return r.load(ctx, bankID)
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (r *BankRepository) cached(bankID string) (domain.QuestionBank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[bankID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.QuestionBank{}, false
	}
	return entry.bank, true
}

func (r *BankRepository) load(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	bank, err := r.loader.LoadBank(ctx, bankID)
	if err != nil {
		return domain.QuestionBank{}, err
	}
	if err := bank.Validate(); err != nil {
		return domain.QuestionBank{}, err
	}

	r.mu.Lock()
	r.entries[bankID] = bankEntry{bank: bank, expiresAt: r.clock().Add(r.jitteredTTL())}
	r.mu.Unlock()
	return bank, nil
}

// jitteredTTL spreads expirations by up to 10% so banks loaded together do
// not reload in lockstep. Callers must hold mu for the rand source.
func (r *BankRepository) jitteredTTL() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	return r.ttl + time.Duration(r.rnd.Int63n(int64(r.ttl)/10+1))
}

// StaticBankLoader is a simple loader backed by an in-memory map (useful for
// tests/demos and for running without Postgres).
type StaticBankLoader struct {
	banks map[string]domain.QuestionBank
}

func NewStaticBankLoader(banks map[string]domain.QuestionBank) *StaticBankLoader {
	return &StaticBankLoader{banks: banks}
}

func (l *StaticBankLoader) LoadBank(_ context.Context, bankID string) (domain.QuestionBank, error) {
	if bank, ok := l.banks[bankID]; ok {
		return bank, nil
	}
	return domain.QuestionBank{}, domain.ErrBankNotFound
}
