package site

import (
	"errors"
	"fmt"
	"strings"

	"smartstorage/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("validation failed: %d error(s): %s", len(v), strings.Join(msgs, "; "))
}

type SiteValidator struct {
	validate *validator.Validate
}

func NewSiteValidator() *SiteValidator {
	return &SiteValidator{validate: validator.New()}
}

func (v *SiteValidator) Validate(s *Site) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if errs := v.validateSiteRules(s); len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *SiteValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var out ValidationErrors
	for _, err := range errs {
		out = append(out, ValidationError{
			Field:   err.Namespace(),
			Message: describe(err),
		})
	}
	return out
}

func describe(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return fmt.Sprintf("is required when %s", err.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", err.Param())
	case "email":
		return "must be a valid e-mail address"
	default:
		return fmt.Sprintf("failed %q validation", err.Tag())
	}
}

// validateSiteRules checks the cross-entry constraints struct tags cannot
// express.
func (v *SiteValidator) validateSiteRules(s *Site) ValidationErrors {
	var errs ValidationErrors

	ids := make(map[int]bool, len(s.Lockers))
	channels := make(map[int]int, len(s.Lockers))
	for i, l := range s.Lockers {
		field := fmt.Sprintf("Site.Lockers[%d]", i)
		if ids[l.ID] {
			errs = append(errs, ValidationError{Field: field + ".ID", Message: fmt.Sprintf("duplicate locker id %d", l.ID)})
		}
		ids[l.ID] = true
		if other, taken := channels[l.Channel]; taken {
			errs = append(errs, ValidationError{Field: field + ".Channel", Message: fmt.Sprintf("channel %d already used by locker %d", l.Channel, other)})
		} else {
			channels[l.Channel] = l.ID
		}
	}

	residentTags := make(map[string]bool)
	for _, u := range s.Users {
		if u.Role == model.RoleResident {
			residentTags[u.Tag] = true
		}
	}
	for i, l := range s.Lockers {
		if l.Occupant != "" && !residentTags[l.Occupant] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("Site.Lockers[%d].Occupant", i),
				Message: fmt.Sprintf("tag %q does not belong to a resident", l.Occupant),
			})
		}
	}
	return errs
}
