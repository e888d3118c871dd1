package adapter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDriverUnavailable is wrapped by a ConfigurationError when the backend's
// database/sql driver is not registered in the running process.
var ErrDriverUnavailable = errors.New("database driver not available")

// ConfigurationError is returned when a target cannot be constructed:
// empty or unknown type, missing required fields, or no usable driver.
type ConfigurationError struct {
	Type      string
	Reason    string
	Available []string
	Err       error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	if e.Type != "" {
		fmt.Fprintf(&b, "invalid %s target: %s", e.Type, e.Reason)
	} else {
		fmt.Fprintf(&b, "invalid target: %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Available) > 0 {
		fmt.Fprintf(&b, "\nAvailable adapters: %s\nHint: Check target.type in txt2sql.yaml or --db-type", strings.Join(e.Available, ", "))
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ConnectionError carries the driver's native message for a failed connect.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IntrospectionError is returned when a catalog query fails.
type IntrospectionError struct {
	Target string
	Table  string // empty when listing tables failed
	Err    error
}

func (e *IntrospectionError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("failed to describe table %s on %s: %v", e.Table, e.Target, e.Err)
	}
	return fmt.Sprintf("failed to list tables on %s: %v", e.Target, e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// RequiredField pairs a configuration key with its value.
type RequiredField struct {
	Key   string
	Value string
}

// CheckRequired returns a ConfigurationError listing every empty field.
func CheckRequired(kind string, fields ...RequiredField) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			missing = append(missing, f.Key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ConfigurationError{
		Type:   kind,
		Reason: "missing required field(s): " + strings.Join(missing, ", "),
	}
}
