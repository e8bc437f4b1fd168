package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/narration"
)

// Lister supplies the transactions to analyze.
type Lister interface {
	List() []core.Transaction
}

// InsightService runs expense narration over the current collection.
// Identical concurrent requests share one generator call and successful
// answers are cached by prompt.
type InsightService struct {
	repo    Lister
	gateway *narration.Gateway
	cache   cache.Cache[string]
	group   singleflight.Group
	logger  *log.Logger
}

// NewInsightService creates the service. A nil cache disables caching.
func NewInsightService(repo Lister, gateway *narration.Gateway, c cache.Cache[string], logger *log.Logger) *InsightService {
	if logger == nil {
		logger = log.Discard()
	}
	return &InsightService{
		repo:    repo,
		gateway: gateway,
		cache:   c,
		logger:  logger.WithComponent(log.ComponentService),
	}
}

// Analyze returns the narration for the current expenses or a fixed
// message. It never fails.
func (s *InsightService) Analyze(ctx context.Context) string {
	expenses := core.Expenses(s.repo.List())
	if !s.gateway.Enabled() || len(expenses) == 0 {
		return s.gateway.Analyze(ctx, expenses)
	}

	key := fingerprint(narration.BuildPrompt(expenses))
	if s.cache != nil {
		if text, ok := s.cache.Get(key); ok {
			s.logger.DebugContext(ctx, "Insight served from cache", log.FieldOperation, log.OpAnalyze)
			return text
		}
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		text, err := s.gateway.Narrate(ctx, expenses)
		if err != nil {
			return "", err
		}
		if s.cache != nil {
			s.cache.Set(key, text)
		}
		return text, nil
	})
	if shared {
		s.logger.DebugContext(ctx, "Insight request joined in-flight call", log.FieldOperation, log.OpAnalyze)
	}
	if err != nil {
		return narration.Message(err)
	}
	return v.(string)
}

func fingerprint(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
