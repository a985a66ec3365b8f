// internal/service/customer/filter.go
package customer

import (
	"strconv"
	"strings"
	"time"

	"retention-service/internal/domain/customer"
)

// predicates is a FilterState with activity resolved once per Apply.
type predicates struct {
	state *customer.FilterState

	terms       []string
	invoiceName string
	phone       string
	days        bool
	from, to    int
	dates       bool

	agencies, models, years, packages, advisors bool
	noPackage                                   bool
}

func compile(state *customer.FilterState) *predicates {
	p := &predicates{
		state:       state,
		terms:       state.SearchTerms(),
		invoiceName: strings.ToLower(strings.TrimSpace(state.InvoiceName)),
		phone:       strings.ToLower(strings.TrimSpace(state.Phone)),
		days:        state.DaysActive(),
		dates:       state.DatesActive(),
		agencies:    state.Agencies.Active(),
		models:      state.Models.Active(),
		years:       state.Years.Active(),
		packages:    state.Packages.Active(),
		advisors:    state.Advisors.Active(),
		noPackage:   state.Packages.Has(customer.NoPackage) || state.Packages.Has(""),
	}
	if p.dates {
		p.from, p.to = dayKey(*state.From), dayKey(*state.To)
	}
	return p
}

func (p *predicates) any() bool {
	return len(p.terms) > 0 || p.invoiceName != "" || p.phone != "" ||
		p.days || p.dates ||
		p.agencies || p.models || p.years || p.packages || p.advisors
}

func (p *predicates) match(c *customer.Customer) bool {
	s := p.state

	if len(p.terms) > 0 {
		serial := strings.ToLower(c.Serial)
		found := false
		for _, t := range p.terms {
			if strings.Contains(serial, t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if p.days {
		d := c.DaysSinceVisit
		if d == 0 || d < s.DaysMin || d > s.DaysMax {
			return false
		}
	}

	if p.dates {
		if c.LastVisit == nil {
			return false
		}
		k := dayKey(*c.LastVisit)
		if k < p.from || k > p.to {
			return false
		}
	}

	if p.agencies && c.Agency != "" && !s.Agencies.Has(c.Agency) {
		return false
	}
	if p.models && !s.Models.Has(c.Model) {
		return false
	}
	if p.years && !s.Years.Has(strconv.Itoa(c.Year)) {
		return false
	}
	if p.packages {
		if c.Package == nil || *c.Package == "" || *c.Package == customer.NoPackage {
			if !p.noPackage {
				return false
			}
		} else if !s.Packages.Has(*c.Package) {
			return false
		}
	}
	if p.advisors && c.Advisor != "" && !s.Advisors.Has(c.Advisor) {
		return false
	}

	if p.invoiceName != "" && !strings.Contains(strings.ToLower(c.InvoiceName), p.invoiceName) {
		return false
	}

	if p.phone != "" && !p.matchPhone(c) {
		return false
	}

	return true
}

func (p *predicates) matchPhone(c *customer.Customer) bool {
	for _, phone := range []string{c.Cellphone, c.Landline, c.Office, ContactNumber(c)} {
		if phone != "" && strings.Contains(strings.ToLower(phone), p.phone) {
			return true
		}
	}
	return false
}

// dayKey reduces a time to its calendar day, ignoring time of day.
func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// Apply returns the records that satisfy every active predicate, in store
// order. With no active predicate the input is returned as is.
func Apply(records []customer.Customer, state *customer.FilterState) []customer.Customer {
	if state == nil {
		return records
	}
	p := compile(state)
	if !p.any() {
		return records
	}
	out := make([]customer.Customer, 0, len(records)/4)
	for i := range records {
		if p.match(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}
