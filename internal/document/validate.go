package document

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrMalformed indicates a document is missing required structural fields and
// cannot be evaluated at all. Data-quality problems inside a structurally
// sound document are never reported through this error.
var ErrMalformed = errors.New("malformed document")

var validate = validator.New()

// ValidateStatement fails hard when the statement lacks the structure the
// reconciliation engine needs (identity, period, at least one lot reference).
func ValidateStatement(st Statement) error {
	if err := validate.Struct(st); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%w: statement field %s failed %s", ErrMalformed, fieldErrs[0].Field(), fieldErrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// ValidatePackage checks the package envelope plus its statement.
func ValidatePackage(pkg Package) error {
	if pkg.ScopeKey == "" {
		return fmt.Errorf("%w: package scope key required", ErrMalformed)
	}
	return ValidateStatement(pkg.Statement)
}
