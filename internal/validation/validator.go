package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with struct-level validation
// registered for requests with cross-field rules.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// product updates are checked as a whole patch: it must name at
	// least one field and must not violate product invariants.
	v.RegisterStructValidation(updateProductStructValidation, UpdateProductRequest{})

	return v
}

func updateProductStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(UpdateProductRequest)

	patch := req.Patch()
	if patch.IsEmpty() {
		sl.ReportError(req, "body", "Body", "empty_patch", "at least one field must be set")
		return
	}
	if err := patch.Validate(); err != nil {
		sl.ReportError(req, "body", "Body", "invalid_patch", err.Error())
	}
}
