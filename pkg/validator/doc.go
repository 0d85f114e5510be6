// Package validator builds declarative field checks. Each helper returns a Rule;
// Apply evaluates rules and aggregates failures into ValidationErrors, which
// implements error and can be recovered with ExtractValidationErrors.
//
//	err := validator.Apply(
//	    validator.Required("email", in.Email),
//	    validator.ValidEmail("email", in.Email),
//	)
package validator
