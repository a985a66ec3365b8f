// internal/service/customer/service.go
package customer

import (
	"context"
	"time"

	"retention-service/internal/domain/customer"
	"retention-service/internal/observability"
	xerrors "retention-service/internal/pkg/errors"

	"go.uber.org/zap"
)

const DateLayout = "2006-01-02"

type CustomerService struct {
	stores  StoreProvider
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewCustomerService(stores StoreProvider, metrics *observability.Metrics, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		stores:  stores,
		metrics: metrics,
		logger:  logger,
	}
}

// Snapshot returns the loaded store of an agency.
func (s *CustomerService) Snapshot(ctx context.Context, agencyName string) (*Snapshot, error) {
	return s.stores.Get(ctx, agencyName)
}

// ListCustomers filters and pages the records of an agency.
func (s *CustomerService) ListCustomers(ctx context.Context, agencyName string, filters *customer.CustomerListFilters) (*customer.CustomerListResponse, error) {
	snap, err := s.stores.Get(ctx, agencyName)
	if err != nil {
		return nil, err
	}

	state, err := StateFromFilters(snap.Store.Metadata(), filters)
	if err != nil {
		return nil, err
	}

	rows := s.Filter(snap.Store, &state)
	page := Paginate(rows, filters.Page, filters.PageSize)

	s.logger.Debug("customers listed",
		zap.String("agency", agencyName),
		zap.Int("matched", page.Total),
		zap.Int("page", page.Page),
	)

	return &customer.CustomerListResponse{
		Customers:     page.Items,
		Total:         page.Total,
		StoreTotal:    snap.Store.Len(),
		Page:          page.Page,
		PageSize:      page.PageSize,
		TotalPages:    page.TotalPages,
		FiltersActive: state.Active(),
	}, nil
}

// FilteredCustomers returns every record of an agency matching filters.
func (s *CustomerService) FilteredCustomers(ctx context.Context, agencyName string, filters *customer.CustomerListFilters) ([]customer.Customer, error) {
	snap, err := s.stores.Get(ctx, agencyName)
	if err != nil {
		return nil, err
	}
	state, err := StateFromFilters(snap.Store.Metadata(), filters)
	if err != nil {
		return nil, err
	}
	return s.Filter(snap.Store, &state), nil
}

// Filter applies state to a store and returns the collection to page through.
func (s *CustomerService) Filter(store *Store, state *customer.FilterState) []customer.Customer {
	start := time.Now()
	filtered := Apply(store.Records(), state)
	s.metrics.ObserveFilter(time.Since(start))
	return Authoritative(store.Records(), filtered, state)
}

func (s *CustomerService) GetMetadata(ctx context.Context, agencyName string) (*customer.Metadata, error) {
	snap, err := s.stores.Get(ctx, agencyName)
	if err != nil {
		return nil, err
	}
	meta := snap.Store.Metadata()
	return &meta, nil
}

func (s *CustomerService) GetStats(ctx context.Context, agencyName string) (*customer.CustomerStats, error) {
	snap, err := s.stores.Get(ctx, agencyName)
	if err != nil {
		return nil, err
	}
	stats := snap.Store.Stats()
	return &stats, nil
}

// StateFromFilters builds a FilterState from query filters. Omitted
// categories stay fully selected.
func StateFromFilters(meta customer.Metadata, f *customer.CustomerListFilters) (customer.FilterState, error) {
	state := customer.NewFilterState(meta)
	if f == nil {
		return state, nil
	}

	state.Search = f.Search
	state.InvoiceName = f.InvoiceName
	state.Phone = f.Phone

	if f.DaysMin != nil || f.DaysMax != nil {
		lo, hi := 0, state.DaysCeiling
		if f.DaysMin != nil {
			lo = *f.DaysMin
		}
		if f.DaysMax != nil {
			hi = *f.DaysMax
		} else {
			// an open upper end never rises above the lower one
			hi = max(hi, lo)
		}
		state.SetDaysRange(lo, hi)
	}

	if f.From != "" || f.To != "" {
		if f.From == "" || f.To == "" {
			return state, xerrors.Invalid("both from and to are required")
		}
		from, err := time.Parse(DateLayout, f.From)
		if err != nil {
			return state, xerrors.Invalid("from: %v", err)
		}
		to, err := time.Parse(DateLayout, f.To)
		if err != nil {
			return state, xerrors.Invalid("to: %v", err)
		}
		state.SetDates(from, to)
	}

	groups := []struct {
		category customer.Category
		values   []string
	}{
		{customer.CategoryAgency, f.Agencies},
		{customer.CategoryModel, f.Models},
		{customer.CategoryYear, f.Years},
		{customer.CategoryPackage, f.Packages},
		{customer.CategoryAdvisor, f.Advisors},
	}
	for _, g := range groups {
		if len(g.values) == 0 {
			continue
		}
		sel, err := state.Category(g.category)
		if err != nil {
			return state, err
		}
		sel.Set(g.values)
	}
	return state, nil
}
