// internal/service/customer/store.go
package customer

import (
	"sort"

	"retention-service/internal/domain/customer"
)

// Store is the loaded, ordered record set of one agency. It is built once
// per load and never mutated afterwards.
type Store struct {
	records  []customer.Customer
	metadata customer.Metadata
	shape    string
}

// NewStore orders records by last visit, most recent first, with undated
// records after all dated ones. Ties keep load order.
func NewStore(records []customer.Customer) *Store {
	sorted := append([]customer.Customer(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].LastVisit, sorted[j].LastVisit
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	meta := DeriveMetadata(sorted)
	return &Store{
		records:  sorted,
		metadata: meta,
		shape:    Shape(meta),
	}
}

// Records returns the store contents. Callers must not modify the slice.
func (s *Store) Records() []customer.Customer {
	if s == nil {
		return nil
	}
	return s.records[:len(s.records):len(s.records)]
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

func (s *Store) Metadata() customer.Metadata {
	if s == nil {
		return DeriveMetadata(nil)
	}
	return s.metadata
}

// Shape fingerprints the option sets of the store.
func (s *Store) Shape() string {
	if s == nil {
		return Shape(DeriveMetadata(nil))
	}
	return s.shape
}

// Stats summarises the store for the agency overview.
func (s *Store) Stats() customer.CustomerStats {
	st := customer.CustomerStats{
		TotalRecords:     s.Len(),
		DistinctModels:   len(s.Metadata().Models),
		DistinctAdvisors: len(s.Metadata().Advisors),
	}
	for i := range s.Records() {
		c := &s.records[i]
		if c.LastVisit != nil {
			st.WithLastVisit++
		}
		if c.HasPackage() {
			st.WithPackage++
		}
		if ContactNumber(c) == NoContact {
			st.WithoutContact++
		}
	}
	return st
}
