// internal/repository/memory/view_repo.go
package memory

import (
	"context"
	"encoding/json"
	"time"

	"retention-service/internal/domain/view"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const DefaultMaxViews = 1024

// ViewRepository keeps views in an expiring LRU. Views are stored as JSON so
// callers never share state with the stored copy.
type ViewRepository struct {
	views *expirable.LRU[string, []byte]
}

func NewViewRepository(size int, ttl time.Duration) *ViewRepository {
	if size <= 0 {
		size = DefaultMaxViews
	}
	return &ViewRepository{views: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (r *ViewRepository) Save(_ context.Context, v *view.View) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.views.Add(v.ID, data)
	return nil
}

func (r *ViewRepository) Get(_ context.Context, id string) (*view.View, error) {
	data, ok := r.views.Get(id)
	if !ok {
		return nil, view.ErrViewNotFound
	}
	var v view.View
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ViewRepository) Delete(_ context.Context, id string) error {
	if !r.views.Remove(id) {
		return view.ErrViewNotFound
	}
	return nil
}
