package school

import (
	"errors"
	"fmt"
)

// ConfigurationError is returned when an argument is rejected before any request is made.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// PortalError is returned when the portal answered but reported a failure, Message is the
// portal's own message when it gave one.
type PortalError struct {
	Status  int
	Message string
}

func (e *PortalError) Error() string {
	return fmt.Sprintf("portal error: %s", e.Message)
}

func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

func IsPortalError(err error) bool {
	var portalErr *PortalError
	return errors.As(err, &portalErr)
}
