package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pablogaravito/psm1-exam-simulator/internal/bank"
	"github.com/pablogaravito/psm1-exam-simulator/internal/config"
	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
	"github.com/rs/zerolog"
)

// ErrBankUnavailable wraps every failure to obtain a usable question bank.
var ErrBankUnavailable = errors.New("question bank unavailable")

// BankService loads the question bank once and shares it read-only between
// attempts. The raw document is also kept in a cache (Redis or in-process)
// so a restarted server does not have to hit the source again.
type BankService struct {
	loader bank.Loader
	cache  bank.Cache
	ttl    time.Duration
	log    zerolog.Logger

	mu      sync.Mutex
	current *model.Bank
}

// NewBankService creates a new BankService.
func NewBankService(loader bank.Loader, cache bank.Cache, ttl time.Duration, log zerolog.Logger) *BankService {
	if cache == nil {
		cache = bank.NewMemoryCache()
	}
	return &BankService{
		loader: loader,
		cache:  cache,
		ttl:    ttl,
		log:    log.With().Str("component", "bank_service").Logger(),
	}
}

// Bank returns the loaded bank, loading it on first use.
func (s *BankService) Bank(ctx context.Context) (*model.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return s.current, nil
	}

	b, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.current = b
	return b, nil
}

// Prewarm loads the bank before traffic is accepted.
func (s *BankService) Prewarm(ctx context.Context) error {
	b, err := s.Bank(ctx)
	if err != nil {
		return err
	}

	counts := b.CountByDifficulty()
	s.log.Info().
		Int("questions", len(b.Records)).
		Int("easy", counts[model.DifficultyEasy]).
		Int("medium", counts[model.DifficultyMedium]).
		Int("hard", counts[model.DifficultyHard]).
		Msg("Question bank ready")
	return nil
}

// Reload fetches the bank from the source again, skipping the cache. The
// shared bank and its cache entry are replaced only when the new document
// parses; on failure the previous bank keeps serving.
func (s *BankService) Reload(ctx context.Context) (*model.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.fetch(ctx)
	if err != nil {
		if s.current != nil {
			s.log.Warn().Err(err).Msg("Reload failed, keeping loaded bank")
		}
		return nil, err
	}
	s.current = b
	return b, nil
}

func (s *BankService) load(ctx context.Context) (*model.Bank, error) {
	key := config.CacheKey.BankPayloadKey(s.loader.Source())

	raw, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		b, parseErr := bank.Parse(raw)
		if parseErr == nil {
			s.log.Debug().Str("key", key).Msg("Bank served from cache")
			return b, nil
		}
		// A stale or corrupt entry must not block the source.
		s.log.Warn().Err(parseErr).Str("key", key).Msg("Cached bank unreadable, reloading")
	case !errors.Is(err, bank.ErrCacheMiss):
		s.log.Warn().Err(err).Msg("Bank cache read failed")
	}

	return s.fetch(ctx)
}

// fetch reads and parses the source document, then overwrites the cache entry.
func (s *BankService) fetch(ctx context.Context) (*model.Bank, error) {
	key := config.CacheKey.BankPayloadKey(s.loader.Source())

	raw, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBankUnavailable, err)
	}

	b, err := bank.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBankUnavailable, err)
	}

	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		// Not fatal: the bank is still held in memory.
		s.log.Warn().Err(err).Msg("Failed to cache bank")
	}

	s.log.Info().
		Str("source", s.loader.Source()).
		Int("questions", len(b.Records)).
		Msg("Question bank loaded")
	return b, nil
}
