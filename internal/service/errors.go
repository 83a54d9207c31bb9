package service

import (
	"errors"
	"fmt"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sentinel errors returned by every service. Handlers map them to HTTP status codes.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound translates gorm's missing-row error and passes anything else through
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

// parseID treats a malformed id like an unknown one
func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return id, nil
}

// lifecycleError maps lifecycle rule violations onto service errors
func lifecycleError(err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrNotPermitted):
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, lifecycle.ErrUnknownStatus), errors.Is(err, lifecycle.ErrUnknownRole):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return err
}

// viewerOf returns the lifecycle identity of u; nil is anonymous
func viewerOf(u *model.User) lifecycle.Viewer {
	if u == nil {
		return lifecycle.Viewer{}
	}
	return u.Viewer()
}

func requireUser(u *model.User) error {
	if u == nil || !u.Viewer().Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

func requireStaff(u *model.User) error {
	if err := requireUser(u); err != nil {
		return err
	}
	if u.Role != lifecycle.RoleAdmin && u.Role != lifecycle.RoleVolunteer {
		return fmt.Errorf("%w: admin or volunteer role required", ErrForbidden)
	}
	return nil
}

func requireAdmin(u *model.User) error {
	if err := requireUser(u); err != nil {
		return err
	}
	if u.Role != lifecycle.RoleAdmin {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}
