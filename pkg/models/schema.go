package models

import "fmt"

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateLead(lead *Lead) error {
	if lead == nil {
		return &ValidationError{
			Field:   "lead",
			Message: "lead cannot be nil",
		}
	}

	if lead.Phone == "" {
		return &ValidationError{
			Field:   "phone",
			Message: "phone is required",
		}
	}

	if lead.Protocol == "" {
		return &ValidationError{
			Field:   "protocol",
			Message: "protocol is required",
		}
	}

	return nil
}
