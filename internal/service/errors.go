package service

import (
	"errors"
	"fmt"
	"strings"

	"go-pos-ws/internal/repository"
	"go-pos-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMovement   = errors.New("invalid stock movement")
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrCartNotFound      = errors.New("cart not found")
)

type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// ValidationError is returned before any write when the input is unusable.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = fmt.Sprintf("%s (%s)", f.Field, f.Tag)
	}
	return "validation failed: " + strings.Join(names, ", ")
}

func (e *ValidationError) add(field, tag, param string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Tag: tag, Param: param})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func validationFrom(errs []*validator.ErrorResponse) error {
	v := &ValidationError{}
	for _, e := range errs {
		v.add(e.FailedField, e.Tag, e.Value)
	}
	return v.orNil()
}

// StockShortage is one product that cannot cover its summed demand.
type StockShortage struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Requested decimal.Decimal `json:"requested"`
	Available decimal.Decimal `json:"available"`
}

// InsufficientStockError lists every failing product of a request, not
// only the first one. Missing holds referenced products that don't exist.
type InsufficientStockError struct {
	Lines   []StockShortage
	Missing []uuid.UUID
}

func (e *InsufficientStockError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		ids := make([]string, len(e.Missing))
		for i, id := range e.Missing {
			ids[i] = id.String()
		}
		parts = append(parts, ErrProductNotFound.Error()+": "+strings.Join(ids, ", "))
	}
	if len(e.Lines) > 0 {
		names := make([]string, len(e.Lines))
		for i, l := range e.Lines {
			names[i] = l.Name
		}
		parts = append(parts, "insufficient stock for "+strings.Join(names, ", "))
	}
	return strings.Join(parts, "; ")
}

// Unwrap matches ErrProductNotFound and repository.ErrInsufficientStock
// for whichever kinds of failure the request had.
func (e *InsufficientStockError) Unwrap() []error {
	var errs []error
	if len(e.Missing) > 0 {
		errs = append(errs, ErrProductNotFound)
	}
	if len(e.Lines) > 0 {
		errs = append(errs, repository.ErrInsufficientStock)
	}
	return errs
}
