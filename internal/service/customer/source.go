// internal/service/customer/source.go
package customer

import (
	"context"
	"fmt"
	"time"

	"retention-service/internal/domain/agency"
	xerrors "retention-service/internal/pkg/errors"
)

// Source reads the raw rows of one agency from wherever they live.
type Source interface {
	Fetch(ctx context.Context, a agency.Agency) ([]Row, error)
}

// Router dispatches to a Source by the agency's source kind.
type Router map[agency.SourceKind]Source

func (r Router) Fetch(ctx context.Context, a agency.Agency) ([]Row, error) {
	src, ok := r[a.Source]
	if !ok || src == nil {
		return nil, xerrors.Unavailable(a.Name, fmt.Errorf("no source for kind %q", a.Source))
	}
	return src.Fetch(ctx, a)
}

// Snapshot is one load of an agency: its store and when it was built.
// Version increases with every load across all agencies.
type Snapshot struct {
	Agency   agency.Agency
	Store    *Store
	Version  uint64
	LoadedAt time.Time
}

// StoreProvider hands out the current snapshot of an agency.
type StoreProvider interface {
	Get(ctx context.Context, agencyName string) (*Snapshot, error)
}
