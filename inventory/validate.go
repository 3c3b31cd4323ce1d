package inventory

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Rules for values checked outside request struct tags.
const (
	ruleID       = "required,max=32,printascii"
	ruleIdentity = "required,max=256"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateRequest checks struct tags and converts the first violation into an
// *InvalidArgumentError.
func validateRequest(req any) error {
	err := requestValidator().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &InvalidArgumentError{Field: fe.Field(), Rule: fe.Tag(), Value: fe.Value()}
	}
	return &InvalidArgumentError{Field: "request", Rule: err.Error()}
}

// validateVar checks a single value against a rule.
func validateVar(field string, value any, rule string) error {
	err := requestValidator().Var(value, rule)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &InvalidArgumentError{Field: field, Rule: verrs[0].Tag(), Value: value}
	}
	return &InvalidArgumentError{Field: field, Rule: err.Error(), Value: value}
}
