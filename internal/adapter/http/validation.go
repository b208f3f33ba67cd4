package http

import (
	"errors"
	"reflect"
	"regexp"

	"nftloan-backend/internal/adapter/middleware"
	"nftloan-backend/internal/domain/order"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

var reAssetID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]{0,127}$`)

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("holder", func(fl validator.FieldLevel) bool {
		return middleware.ValidCallerID(fl.Field().String())
	})
	_ = v.RegisterValidation("assetid", func(fl validator.FieldLevel) bool {
		return reAssetID.MatchString(fl.Field().String())
	})
	// decimals are validated through their canonical string form
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("dpos", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("dgte0", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative()
	})
	_ = v.RegisterValidation("dscale", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.Equal(d.Truncate(order.AmountScale))
	})
	_ = v.RegisterValidation("dmax", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.Abs().LessThan(order.MaxAmount)
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// ToFieldErrors maps validator.ValidationErrors to readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "holder":
			out = append(out, FieldError{Field: field, Message: "must be a valid account holder id"})
		case "assetid":
			out = append(out, FieldError{Field: field, Message: "must be a valid asset id"})
		case "dpos":
			out = append(out, FieldError{Field: field, Message: "must be greater than 0"})
		case "dgte0":
			out = append(out, FieldError{Field: field, Message: "must not be negative"})
		case "dscale":
			out = append(out, FieldError{Field: field, Message: "must have at most 6 decimal places"})
		case "dmax":
			out = append(out, FieldError{Field: field, Message: "must be less than " + order.MaxAmount.String()})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		case "oneof":
			out = append(out, FieldError{Field: field, Message: "must be one of: " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
