package customer

import (
	"testing"

	"retention-service/internal/domain/customer"

	"github.com/stretchr/testify/assert"
)

func TestDeriveMetadata(t *testing.T) {
	meta := DeriveMetadata(fixture())

	assert.Equal(t, []string{"Gasme Centro", "Gasme Norte"}, meta.Agencies)
	assert.Equal(t, []string{"Aveo", "Onix", "Spark"}, meta.Models)
	assert.Equal(t, []string{"2021", "2020", "2018", "0"}, meta.Years)
	assert.Equal(t, []string{"Oro", customer.NoPackage}, meta.Packages)
	assert.Equal(t, []string{"Ana", "Luis"}, meta.Advisors)
	assert.Equal(t, customer.DaysBounds{Min: 8, Max: 500}, meta.Days)
}

func TestDeriveMetadata_TrimsAgencies(t *testing.T) {
	meta := DeriveMetadata([]customer.Customer{{Agency: " Sierra "}, {Agency: "Sierra"}})
	assert.Equal(t, []string{"Sierra"}, meta.Agencies)
}

func TestDeriveMetadata_YearsSortNumerically(t *testing.T) {
	meta := DeriveMetadata([]customer.Customer{{Year: 999}, {Year: 2024}, {Year: 10000}})
	assert.Equal(t, []string{"10000", "2024", "999"}, meta.Years)
}

func TestDeriveMetadata_DefaultCeiling(t *testing.T) {
	meta := DeriveMetadata([]customer.Customer{{DaysSinceVisit: 0}})
	assert.Equal(t, customer.DaysBounds{Min: 0, Max: customer.DefaultDaysCeiling}, meta.Days)

	empty := DeriveMetadata(nil)
	assert.Empty(t, empty.Models)
	assert.Equal(t, customer.DefaultDaysCeiling, empty.Days.Max)
}

func TestShape(t *testing.T) {
	a := DeriveMetadata(fixture())
	b := DeriveMetadata(fixture())
	assert.Equal(t, Shape(a), Shape(b))

	more := append(fixture(), customer.Customer{ID: 5, Model: "Tahoe"})
	assert.NotEqual(t, Shape(a), Shape(DeriveMetadata(more)))
}
