package entity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrCollaborator      = errors.New("collaborator failure")
	ErrStorage           = errors.New("storage failure")
)

var (
	ErrJobNotFound        = fmt.Errorf("job %w", ErrNotFound)
	ErrTaskNotFound       = fmt.Errorf("task %w", ErrNotFound)
	ErrStepNotFound       = fmt.Errorf("step %w", ErrNotFound)
	ErrCustomerNotFound   = fmt.Errorf("customer %w", ErrNotFound)
	ErrTechnicianNotFound = fmt.Errorf("technician %w", ErrNotFound)
	ErrVehicleNotFound    = fmt.Errorf("vehicle %w", ErrNotFound)
)

// InvalidIdentifier tags a malformed id with the name of the parameter it came from.
func InvalidIdentifier(name, value string) error {
	return fmt.Errorf("%w: %s %q", ErrInvalidIdentifier, name, value)
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func StorageFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

func CollaboratorFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrCollaborator, err)
}
