// internal/domain/customer/entity.go
package customer

import "time"

// NoPackage is the option value that stands for records without a package.
const NoPackage = "null"

// Customer is one customer/vehicle service-visit entry of an agency.
type Customer struct {
	ID          int    `json:"id"`
	Serial      string `json:"serial"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	InvoiceName string `json:"invoice_name"`
	Contact     string `json:"contact"`
	Agency      string `json:"agency"`

	// Phone numbers; empty means absent. Values may carry spreadsheet
	// scientific notation (5.2181E+11).
	Cellphone string `json:"cellphone"`
	Landline  string `json:"landline,omitempty"`
	Office    string `json:"office,omitempty"`

	// Package keeps nil, "null" and "" apart; all three mean "no package".
	Package     *string    `json:"package,omitempty"`
	OrderNumber *float64   `json:"order_number,omitempty"`
	Total       *float64   `json:"total,omitempty"`
	Advisor     string     `json:"advisor"`
	LastVisit   *time.Time `json:"last_visit,omitempty"`

	DaysSinceVisit int `json:"days_since_visit"`
}

// HasPackage reports whether the record carries a real package value.
func (c *Customer) HasPackage() bool {
	return c.Package != nil && *c.Package != "" && *c.Package != NoPackage
}

// DaysBounds is the smallest and largest positive days-since-visit value of
// a store. Max is the ceiling of the range filter.
type DaysBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Metadata holds the option sets used to populate the filter controls.
type Metadata struct {
	Agencies []string   `json:"agencies"`
	Models   []string   `json:"models"`
	Years    []string   `json:"years"`
	Packages []string   `json:"packages"`
	Advisors []string   `json:"advisors"`
	Days     DaysBounds `json:"days"`
}

type CustomerStats struct {
	TotalRecords     int `json:"total_records"`
	WithLastVisit    int `json:"with_last_visit"`
	WithPackage      int `json:"with_package"`
	WithoutContact   int `json:"without_contact"`
	DistinctModels   int `json:"distinct_models"`
	DistinctAdvisors int `json:"distinct_advisors"`
}
