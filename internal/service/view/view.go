// internal/service/view/view.go
package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"retention-service/internal/domain/customer"
	"retention-service/internal/domain/view"
	"retention-service/internal/observability"
	xerrors "retention-service/internal/pkg/errors"
	customersvc "retention-service/internal/service/customer"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type Repository interface {
	Save(ctx context.Context, v *view.View) error
	Get(ctx context.Context, id string) (*view.View, error)
	Delete(ctx context.Context, id string) error
}

// ViewService runs the dashboard sessions. Commands on one view are
// serialized; different views proceed in parallel.
type ViewService struct {
	repo      Repository
	customers *customersvc.CustomerService
	metrics   *observability.Metrics
	logger    *zap.Logger
	pageSize  int
	now       func() time.Time

	locks sync.Map // view id -> *sync.Mutex
}

func NewViewService(repo Repository, customers *customersvc.CustomerService, pageSize int, metrics *observability.Metrics, logger *zap.Logger) *ViewService {
	if pageSize <= 0 {
		pageSize = customersvc.DefaultPageSize
	}
	return &ViewService{
		repo:      repo,
		customers: customers,
		metrics:   metrics,
		logger:    logger,
		pageSize:  pageSize,
		now:       time.Now,
	}
}

func (s *ViewService) lock(id string) func() {
	return s.acquire(id).Unlock
}

// acquire takes the mutex of a view. A waiter woken on a mutex that Delete
// already dropped retries on the current one.
func (s *ViewService) acquire(id string) *sync.Mutex {
	for {
		m, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
		mu := m.(*sync.Mutex)
		mu.Lock()
		if cur, ok := s.locks.Load(id); ok && cur == m {
			return mu
		}
		mu.Unlock()
	}
}

// Create opens a view on an agency with every filter at its default.
func (s *ViewService) Create(ctx context.Context, req *view.CreateViewRequest) (*view.ViewPage, error) {
	snap, err := s.customers.Snapshot(ctx, req.Agency)
	if err != nil {
		return nil, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	now := s.now()
	v := &view.View{
		ID:           ulid.Make().String(),
		Agency:       snap.Agency.Name,
		State:        customer.NewFilterState(snap.Store.Metadata()),
		Page:         1,
		PageSize:     pageSize,
		Shape:        snap.Store.Shape(),
		StoreVersion: snap.Version,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	page := s.settle(v, snap)
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to save view: %w", err)
	}

	s.logger.Info("view created",
		zap.String("view_id", v.ID),
		zap.String("agency", v.Agency),
		zap.Int("records", snap.Store.Len()),
	)
	return page, nil
}

// Get returns the current page of a view, resyncing its filters with the
// latest store of the agency.
func (s *ViewService) Get(ctx context.Context, id string) (*view.ViewPage, error) {
	unlock := s.lock(id)
	defer unlock()

	v, snap, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	page := s.settle(v, snap)
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to save view: %w", err)
	}
	return page, nil
}

// Apply runs one UI command against a view.
func (s *ViewService) Apply(ctx context.Context, id string, cmd *view.Command) (*view.ViewPage, error) {
	unlock := s.lock(id)
	defer unlock()

	v, snap, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(v, snap, cmd); err != nil {
		return nil, err
	}
	s.metrics.ViewCommand(string(cmd.Op))

	page := s.settle(v, snap)
	v.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to save view: %w", err)
	}
	return page, nil
}

// SwitchAgency moves a view to another agency. While the new store loads
// the view is marked loading and page changes are ignored; once loaded the
// store, filters and page are replaced together.
func (s *ViewService) SwitchAgency(ctx context.Context, id, agencyName string) (*view.ViewPage, error) {
	unlock := s.lock(id)
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		unlock()
		return nil, err
	}
	if v.Agency == agencyName && !v.Loading {
		unlock()
		return s.Get(ctx, id)
	}
	v.Loading = true
	if err := s.repo.Save(ctx, v); err != nil {
		unlock()
		return nil, fmt.Errorf("failed to save view: %w", err)
	}
	unlock()

	snap, loadErr := s.customers.Snapshot(ctx, agencyName)

	unlock = s.lock(id)
	defer unlock()

	v, err = s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Loading = false
	if loadErr != nil {
		if err := s.repo.Save(ctx, v); err != nil {
			s.logger.Error("failed to clear loading flag", zap.String("view_id", id), zap.Error(err))
		}
		return nil, loadErr
	}

	previous := v.Agency
	v.Agency = snap.Agency.Name
	v.State = customer.NewFilterState(snap.Store.Metadata())
	v.Page = 1
	v.Shape = snap.Store.Shape()
	v.StoreVersion = snap.Version
	v.UpdatedAt = s.now()

	page := s.settle(v, snap)
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to save view: %w", err)
	}

	s.logger.Info("view switched agency",
		zap.String("view_id", id),
		zap.String("from", previous),
		zap.String("to", v.Agency),
	)
	return page, nil
}

// Rows returns every record of a view that passes its filters.
func (s *ViewService) Rows(ctx context.Context, id string) (*view.View, []customer.Customer, error) {
	unlock := s.lock(id)
	defer unlock()

	v, snap, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	s.sync(v, snap)
	return v, s.customers.Filter(snap.Store, &v.State), nil
}

func (s *ViewService) Delete(ctx context.Context, id string) error {
	mu := s.acquire(id)
	defer mu.Unlock()
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.locks.CompareAndDelete(id, mu)
	return nil
}

func (s *ViewService) load(ctx context.Context, id string) (*view.View, *customersvc.Snapshot, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	snap, err := s.customers.Snapshot(ctx, v.Agency)
	if err != nil {
		return nil, nil, err
	}
	return v, snap, nil
}

// sync resets the selections of a view when its agency store gained or lost
// option values since the view last looked.
func (s *ViewService) sync(v *view.View, snap *customersvc.Snapshot) {
	if v.StoreVersion == snap.Version {
		return
	}
	shape := snap.Store.Shape()
	if shape != v.Shape {
		if v.State.Sync(snap.Store.Metadata()) {
			s.logger.Debug("view filters resynced",
				zap.String("view_id", v.ID),
				zap.Uint64("store_version", snap.Version),
			)
		}
		v.Shape = shape
	}
	v.StoreVersion = snap.Version
}

// settle syncs a view, clamps its page and renders it.
func (s *ViewService) settle(v *view.View, snap *customersvc.Snapshot) *view.ViewPage {
	s.sync(v, snap)
	rows := s.customers.Filter(snap.Store, &v.State)
	p := customersvc.Paginate(rows, v.Page, v.PageSize)
	v.Page = p.Page
	return &view.ViewPage{
		View:          v,
		Customers:     p.Items,
		Total:         p.Total,
		StoreTotal:    snap.Store.Len(),
		TotalPages:    p.TotalPages,
		FiltersActive: v.State.Active(),
		Metadata:      snap.Store.Metadata(),
	}
}

func (s *ViewService) apply(v *view.View, snap *customersvc.Snapshot, cmd *view.Command) error {
	state := &v.State

	switch cmd.Op {
	case view.OpSearch:
		state.Search = cmd.Value
	case view.OpInvoiceName:
		state.InvoiceName = cmd.Value
	case view.OpPhone:
		state.Phone = cmd.Value
	case view.OpRange:
		state.SetDaysRange(cmd.Min, cmd.Max)
	case view.OpDates:
		from, err := time.Parse(customersvc.DateLayout, cmd.From)
		if err != nil {
			return xerrors.Invalid("from: %v", err)
		}
		to, err := time.Parse(customersvc.DateLayout, cmd.To)
		if err != nil {
			return xerrors.Invalid("to: %v", err)
		}
		state.SetDates(from, to)
	case view.OpClearDates:
		state.ClearDates()
	case view.OpToggle, view.OpOnly, view.OpSelectAll, view.OpSet:
		sel, err := state.Category(cmd.Category)
		if err != nil {
			return err
		}
		applied := true
		switch cmd.Op {
		case view.OpToggle:
			applied = sel.Toggle(cmd.Value)
		case view.OpOnly:
			applied = sel.Only(cmd.Value)
		case view.OpSelectAll:
			sel.SelectAll()
		case view.OpSet:
			sel.Set(cmd.Values)
		}
		if !applied {
			s.logger.Debug("ignoring unknown option",
				zap.String("view_id", v.ID),
				zap.String("category", string(cmd.Category)),
				zap.String("value", cmd.Value),
			)
		}
	case view.OpReset:
		*state = customer.NewFilterState(snap.Store.Metadata())
		v.Page = 1
	case view.OpPage:
		if v.Loading {
			return nil
		}
		v.Page = cmd.Page
	default:
		return fmt.Errorf("%w: %q", view.ErrUnknownCommand, cmd.Op)
	}
	return nil
}
