// internal/service/history/history.go
package history

import (
	"context"
	"strings"
	"time"

	"retention-service/internal/domain/agency"
	"retention-service/internal/domain/history"
	xerrors "retention-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type Repository interface {
	Add(ctx context.Context, entry *history.Entry, limit int) error
	List(ctx context.Context, agency string, limit int) ([]history.Entry, error)
	Remove(ctx context.Context, agency string, terms ...string) error
}

type HistoryService struct {
	repo     Repository
	registry *agency.Registry
	logger   *zap.Logger
	now      func() time.Time
}

func NewHistoryService(repo Repository, registry *agency.Registry, logger *zap.Logger) *HistoryService {
	return &HistoryService{
		repo:     repo,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// Record saves an explicit serial search of an agency.
func (s *HistoryService) Record(ctx context.Context, agencyName, term string) (*history.Entry, error) {
	if _, err := s.registry.Get(agencyName); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, xerrors.Invalid("empty search term")
	}

	entry := &history.Entry{Agency: agencyName, Term: term, SearchedAt: s.now()}
	if err := s.repo.Add(ctx, entry, history.MaxEntries); err != nil {
		s.logger.Error("failed to record search", zap.String("agency", agencyName), zap.Error(err))
		return nil, err
	}

	s.logger.Debug("search recorded", zap.String("agency", agencyName), zap.String("term", term))
	return entry, nil
}

// List returns the recent searches of an agency, newest first.
func (s *HistoryService) List(ctx context.Context, agencyName string) ([]history.Entry, error) {
	if _, err := s.registry.Get(agencyName); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, agencyName, history.MaxEntries)
}

// Clear removes the given terms, or all of them when none are named.
func (s *HistoryService) Clear(ctx context.Context, agencyName string, terms ...string) error {
	if _, err := s.registry.Get(agencyName); err != nil {
		return err
	}
	return s.repo.Remove(ctx, agencyName, terms...)
}
