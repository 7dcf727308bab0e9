package handler

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	zipPattern    = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	phonePattern  = regexp.MustCompile(`^\(?(\d{3})\)?[- ]?(\d{3})[- ]?(\d{4})$`)
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
)

func patternRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// RegisterValidators adds the checkout form rules (zip, phone, expiry) to
// gin's binding engine.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	rules := map[string]*regexp.Regexp{
		"zip":    zipPattern,
		"phone":  phonePattern,
		"expiry": expiryPattern,
	}
	for tag, re := range rules {
		if err := v.RegisterValidation(tag, patternRule(re)); err != nil {
			return fmt.Errorf("register %s rule: %w", tag, err)
		}
	}
	return nil
}
