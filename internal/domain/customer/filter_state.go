// internal/domain/customer/filter_state.go
package customer

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"
)

// DefaultDaysCeiling is used when a store has no positive days-since-visit.
const DefaultDaysCeiling = 10000

var ErrUnknownCategory = errors.New("unknown filter category")

type Category string

const (
	CategoryAgency  Category = "agency"
	CategoryModel   Category = "model"
	CategoryYear    Category = "year"
	CategoryPackage Category = "package"
	CategoryAdvisor Category = "advisor"
)

// Selection is a checkbox group: the known options and the subset currently
// selected. The selected set is always a subset of the options.
type Selection struct {
	options  []string
	selected map[string]struct{}
}

// NewSelection returns a selection with every option selected.
func NewSelection(options []string) Selection {
	s := Selection{
		options:  append([]string(nil), options...),
		selected: make(map[string]struct{}, len(options)),
	}
	for _, o := range s.options {
		s.selected[o] = struct{}{}
	}
	return s
}

func (s *Selection) Options() []string {
	return append([]string(nil), s.options...)
}

// Selected returns the selected values in option order.
func (s *Selection) Selected() []string {
	out := make([]string, 0, len(s.selected))
	for _, o := range s.options {
		if _, ok := s.selected[o]; ok {
			out = append(out, o)
		}
	}
	return out
}

func (s *Selection) Has(value string) bool {
	_, ok := s.selected[value]
	return ok
}

// Active reports whether at least one known option is deselected.
func (s *Selection) Active() bool {
	return len(s.selected) < len(s.options)
}

func (s *Selection) isOption(value string) bool {
	for _, o := range s.options {
		if o == value {
			return true
		}
	}
	return false
}

// Toggle flips one option. Unknown values are ignored.
func (s *Selection) Toggle(value string) bool {
	if !s.isOption(value) {
		return false
	}
	if s.selected == nil {
		s.selected = make(map[string]struct{})
	}
	if _, ok := s.selected[value]; ok {
		delete(s.selected, value)
	} else {
		s.selected[value] = struct{}{}
	}
	return true
}

// Only selects value and deselects everything else.
func (s *Selection) Only(value string) bool {
	if !s.isOption(value) {
		return false
	}
	s.selected = map[string]struct{}{value: {}}
	return true
}

func (s *Selection) SelectAll() {
	*s = NewSelection(s.options)
}

// Set replaces the selected values, keeping only known options.
func (s *Selection) Set(values []string) {
	s.selected = make(map[string]struct{}, len(values))
	for _, v := range values {
		if s.isOption(v) {
			s.selected[v] = struct{}{}
		}
	}
}

// SameOptions reports whether options has the same members as the selection.
func (s *Selection) SameOptions(options []string) bool {
	if len(options) != len(s.options) {
		return false
	}
	a := append([]string(nil), options...)
	b := append([]string(nil), s.options...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type selectionJSON struct {
	Options  []string `json:"options"`
	Selected []string `json:"selected"`
}

func (s Selection) MarshalJSON() ([]byte, error) {
	opts := s.options
	if opts == nil {
		opts = []string{}
	}
	return json.Marshal(selectionJSON{Options: opts, Selected: s.Selected()})
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var raw selectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Selection{options: raw.Options}
	s.Set(raw.Selected)
	return nil
}

// FilterState is the full set of predicate configurations of one dashboard.
type FilterState struct {
	Search      string `json:"search"`
	InvoiceName string `json:"invoice_name"`
	Phone       string `json:"phone"`

	DaysMin     int `json:"days_min"`
	DaysMax     int `json:"days_max"`
	DaysCeiling int `json:"days_ceiling"`

	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`

	Agencies Selection `json:"agencies"`
	Models   Selection `json:"models"`
	Years    Selection `json:"years"`
	Packages Selection `json:"packages"`
	Advisors Selection `json:"advisors"`
}

// NewFilterState builds the default state for a store: every option
// selected, the days range spanning [0, ceiling], no text and no dates.
func NewFilterState(meta Metadata) FilterState {
	ceiling := meta.Days.Max
	if ceiling <= 0 {
		ceiling = DefaultDaysCeiling
	}
	return FilterState{
		DaysMax:     ceiling,
		DaysCeiling: ceiling,
		Agencies:    NewSelection(meta.Agencies),
		Models:      NewSelection(meta.Models),
		Years:       NewSelection(meta.Years),
		Packages:    NewSelection(meta.Packages),
		Advisors:    NewSelection(meta.Advisors),
	}
}

// SearchTerms splits the serial search on commas, dropping blank fragments.
func (f *FilterState) SearchTerms() []string {
	var terms []string
	for _, part := range strings.Split(f.Search, ",") {
		if t := strings.ToLower(strings.TrimSpace(part)); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// DaysActive: a zero/zero range means no filter.
func (f *FilterState) DaysActive() bool {
	if f.DaysMin == 0 && f.DaysMax == 0 {
		return false
	}
	return f.DaysMin > 0 || f.DaysMax < f.DaysCeiling
}

func (f *FilterState) DatesActive() bool {
	return f.From != nil && f.To != nil
}

// Active reports whether any predicate would reject records.
func (f *FilterState) Active() bool {
	return len(f.SearchTerms()) > 0 ||
		strings.TrimSpace(f.InvoiceName) != "" ||
		strings.TrimSpace(f.Phone) != "" ||
		f.DaysActive() ||
		f.DatesActive() ||
		f.Agencies.Active() ||
		f.Models.Active() ||
		f.Years.Active() ||
		f.Packages.Active() ||
		f.Advisors.Active()
}

// SetDaysRange applies a slider change. Zero/zero resets to the full range.
func (f *FilterState) SetDaysRange(min, max int) {
	if min < 0 {
		min = 0
	}
	if max < 0 {
		max = 0
	}
	if min == 0 && max == 0 {
		f.DaysMin, f.DaysMax = 0, f.DaysCeiling
		return
	}
	if min > max {
		min, max = max, min
	}
	f.DaysMin, f.DaysMax = min, max
}

// SetDates sets both ends of the date range, swapping them when reversed.
func (f *FilterState) SetDates(from, to time.Time) {
	if to.Before(from) {
		from, to = to, from
	}
	f.From, f.To = &from, &to
}

func (f *FilterState) ClearDates() {
	f.From, f.To = nil, nil
}

func (f *FilterState) Category(c Category) (*Selection, error) {
	switch c {
	case CategoryAgency:
		return &f.Agencies, nil
	case CategoryModel:
		return &f.Models, nil
	case CategoryYear:
		return &f.Years, nil
	case CategoryPackage:
		return &f.Packages, nil
	case CategoryAdvisor:
		return &f.Advisors, nil
	}
	return nil, ErrUnknownCategory
}

// Sync resets every selection whose options no longer match meta. Toggles
// on unchanged groups survive.
func (f *FilterState) Sync(meta Metadata) bool {
	changed := false
	groups := []struct {
		sel     *Selection
		options []string
	}{
		{&f.Agencies, meta.Agencies},
		{&f.Models, meta.Models},
		{&f.Years, meta.Years},
		{&f.Packages, meta.Packages},
		{&f.Advisors, meta.Advisors},
	}
	for _, g := range groups {
		if !g.sel.SameOptions(g.options) {
			*g.sel = NewSelection(g.options)
			changed = true
		}
	}
	ceiling := meta.Days.Max
	if ceiling <= 0 {
		ceiling = DefaultDaysCeiling
	}
	if ceiling != f.DaysCeiling {
		wasFull := f.DaysMax >= f.DaysCeiling
		f.DaysCeiling = ceiling
		if wasFull || f.DaysMax > ceiling {
			f.DaysMax = ceiling
		}
		changed = true
	}
	return changed
}
