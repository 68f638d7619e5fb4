package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownToken     = errors.New("unknown snapshot token")
	ErrUndeclaredStatus = errors.New("undeclared status")
	ErrIneligible       = errors.New("action not allowed from current status")
	ErrNotConfirmed     = errors.New("operator did not confirm")
	ErrUnknownAction    = errors.New("unknown action")
)

// NetworkError: fallo transitorio de transporte (o 5xx). Reintentable a criterio del caller.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("network error: %s", e.Op)
	}
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthorizationError: 401/403. No reintentable.
type AuthorizationError struct {
	StatusCode int
	Message    string
}

func (e *AuthorizationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authorization error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("authorization error: %s", e.Message)
}

// ValidationError: el servidor rechazó el payload. Message es el texto del servidor tal cual.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError: la entidad no existe (local o remotamente).
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", strings.TrimSuffix(string(e.Kind), "s"), e.ID)
}

// DataIntegrityError: un fetch trajo IDs duplicados o vacíos. El cache previo se conserva.
type DataIntegrityError struct {
	Kind       Kind
	Duplicates []string
	BlankIDs   int
}

func (e *DataIntegrityError) Error() string {
	var parts []string
	if len(e.Duplicates) > 0 {
		parts = append(parts, "duplicate ids: "+strings.Join(e.Duplicates, ","))
	}
	if e.BlankIDs > 0 {
		parts = append(parts, fmt.Sprintf("%d entities without id", e.BlankIDs))
	}
	return fmt.Sprintf("data integrity: %s fetch contains %s", e.Kind, strings.Join(parts, "; "))
}

// StaleEligibilityError: el estado cambió entre la selección y el despacho.
type StaleEligibilityError struct {
	ID     string
	Action string
	Status string
}

func (e *StaleEligibilityError) Error() string {
	return fmt.Sprintf("stale eligibility: %s cannot %s from status %q", e.ID, e.Action, e.Status)
}

func (e *StaleEligibilityError) Unwrap() error { return ErrIneligible }

// Retryable indica si el caller puede reintentar la operación.
func Retryable(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
