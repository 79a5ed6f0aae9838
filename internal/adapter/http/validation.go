package http

import (
	"math/big"
	"regexp"

	"github.com/go-playground/validator/v10"
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

var (
	reHex32  = regexp.MustCompile(`^[a-f0-9]{32}$`)
	reBigInt = regexp.MustCompile(`^[0-9]+$`)
)

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// account id = 32-char lowercase hex
	_ = v.RegisterValidation("hex32", func(fl validator.FieldLevel) bool {
		return reHex32.MatchString(fl.Field().String())
	})
	// amounts travel as unsigned decimal strings (base-unit precision)
	_ = v.RegisterValidation("bigint", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !reBigInt.MatchString(s) {
			return false
		}
		_, ok := new(big.Int).SetString(s, 10)
		return ok
	})
	// positive variant of the above
	_ = v.RegisterValidation("bigint_pos", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !reBigInt.MatchString(s) {
			return false
		}
		n, ok := new(big.Int).SetString(s, 10)
		return ok && n.Sign() > 0
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "hex32":
			out = append(out, FieldError{Field: field, Message: "must be 32-char lowercase hex"})
		case "bigint":
			out = append(out, FieldError{Field: field, Message: "must be an unsigned integer string"})
		case "bigint_pos":
			out = append(out, FieldError{Field: field, Message: "must be a positive integer string"})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "gt":
			out = append(out, FieldError{Field: field, Message: "must be greater than " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
