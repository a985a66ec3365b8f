package customer

import (
	"time"

	"retention-service/internal/domain/customer"
)

func strPtr(s string) *string { return &s }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// fixture is a small mixed store used across the engine tests.
func fixture() []customer.Customer {
	return []customer.Customer{
		{ID: 1, Serial: "ABC123", Model: "Aveo", Year: 2020, InvoiceName: "Juan Perez", Agency: "Gasme Centro", Cellphone: "5.2181E+11", Package: strPtr("Oro"), Advisor: "Luis", LastVisit: date(2024, 3, 10), DaysSinceVisit: 10},
		{ID: 2, Serial: "XYZ789", Model: "Onix", Year: 2018, InvoiceName: "Maria Lopez", Agency: "Gasme Norte", Landline: "8112345678", Package: nil, Advisor: "", LastVisit: date(2023, 1, 5), DaysSinceVisit: 500},
		{ID: 3, Serial: "ABD555", Model: "Aveo", Year: 2021, InvoiceName: "JUAN GARCIA", Agency: "", Office: "8187654321", Package: strPtr(""), Advisor: "Ana", LastVisit: nil, DaysSinceVisit: 0},
		{ID: 4, Serial: "QWE000", Model: "Spark", Year: 0, InvoiceName: "Pedro", Agency: "Gasme Centro", Package: strPtr("null"), Advisor: "Luis", LastVisit: date(2024, 3, 12), DaysSinceVisit: 8},
	}
}

func ids(records []customer.Customer) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func stateFor(records []customer.Customer) customer.FilterState {
	return customer.NewFilterState(DeriveMetadata(records))
}
