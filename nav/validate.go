package nav

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateStruct runs the struct's validate tags and reports the first
// failing field as an *ErrInvalidRequest.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fmt.Sprintf("must satisfy %s", fe.Tag())
		if fe.Param() != "" {
			reason = fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
		}
		return invalid(fe.Namespace(), reason)
	}
	return invalid("request", err.Error())
}

// ValidateRoute checks that a route can be used as a guide route
func ValidateRoute(r Route) error {
	return validateStruct(r)
}
