package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    uuid.UUID       `validate:"uuid_required"`
	Name  string          `validate:"required"`
	Price decimal.Decimal `validate:"gte=0"`
}

func TestValidateStructDecimal(t *testing.T) {
	ok := sample{ID: uuid.New(), Name: "Tea", Price: decimal.RequireFromString("2.50")}
	assert.Empty(t, ValidateStruct(ok))

	bad := sample{ID: uuid.New(), Name: "Tea", Price: decimal.NewFromInt(-1)}
	errs := ValidateStruct(bad)
	require.Len(t, errs, 1)
	assert.Equal(t, "sample.Price", errs[0].FailedField)
	assert.Equal(t, "gte", errs[0].Tag)
}

func TestValidateStructUUIDRequired(t *testing.T) {
	errs := ValidateStruct(sample{Name: "Tea"})
	require.Len(t, errs, 1)
	assert.Equal(t, "uuid_required", errs[0].Tag)
}
