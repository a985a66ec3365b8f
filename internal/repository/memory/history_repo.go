// internal/repository/memory/history_repo.go
package memory

import (
	"context"
	"slices"
	"sync"

	"retention-service/internal/domain/history"
)

// SearchHistoryRepository keeps search history in process, newest first.
type SearchHistoryRepository struct {
	mu      sync.Mutex
	entries map[string][]history.Entry
}

func NewSearchHistoryRepository() *SearchHistoryRepository {
	return &SearchHistoryRepository{entries: make(map[string][]history.Entry)}
}

func (r *SearchHistoryRepository) Add(_ context.Context, entry *history.Entry, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := slices.DeleteFunc(r.entries[entry.Agency], func(e history.Entry) bool {
		return e.Term == entry.Term
	})
	list = append([]history.Entry{*entry}, list...)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	r.entries[entry.Agency] = list
	return nil
}

func (r *SearchHistoryRepository) List(_ context.Context, agency string, limit int) ([]history.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.entries[agency]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return append([]history.Entry{}, list...), nil
}

func (r *SearchHistoryRepository) Remove(_ context.Context, agency string, terms ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(terms) == 0 {
		delete(r.entries, agency)
		return nil
	}
	r.entries[agency] = slices.DeleteFunc(r.entries[agency], func(e history.Entry) bool {
		return slices.Contains(terms, e.Term)
	})
	return nil
}
