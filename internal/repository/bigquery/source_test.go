package bigquery

import (
	"math/big"
	"testing"
	"time"

	"retention-service/internal/domain/agency"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRef(t *testing.T) {
	ref, err := TableRef(agency.Agency{Name: "Gasme", ProjectID: "p", Dataset: "d", Table: "t"})
	require.NoError(t, err)
	assert.Equal(t, "`p.d.t`", ref)

	_, err = TableRef(agency.Agency{Name: "Gasme", ProjectID: "p"})
	assert.Error(t, err)

	_, err = TableRef(agency.Agency{Name: "Gasme", ProjectID: "p", Dataset: "d", Table: "t`; DROP"})
	assert.Error(t, err)
}

func TestConvertValue(t *testing.T) {
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), convertValue(civil.Date{Year: 2024, Month: 3, Day: 5}))

	dt := civil.DateTime{Date: civil.Date{Year: 2024, Month: 3, Day: 5}, Time: civil.Time{Hour: 10}}
	assert.Equal(t, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), convertValue(dt))

	assert.Equal(t, "abc", convertValue([]byte("abc")))
	assert.Equal(t, 2.5, convertValue(big.NewRat(5, 2)))
	assert.Equal(t, int64(7), convertValue(int64(7)))
	assert.Nil(t, convertValue(nil))
}
