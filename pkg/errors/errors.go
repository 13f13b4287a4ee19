package errors

import (
	"fmt"
)

// ParseError represents a configuration parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EncryptionError reports a failed encrypt or decrypt of a payload.
type EncryptionError struct {
	Capability string
	Op         string
	Err        error
}

// NewEncryptionError constructs an EncryptionError for the given capability
// and operation ("encrypt" or "decrypt").
func NewEncryptionError(capability, op string, err error) error {
	return &EncryptionError{Capability: capability, Op: op, Err: err}
}

func (e *EncryptionError) Error() string {
	if e == nil {
		return ""
	}
	op := e.Op
	if op == "" {
		op = "encrypt"
	}
	if e.Capability != "" {
		return fmt.Sprintf("%s error [%s]: %v", op, e.Capability, e.Err)
	}
	return fmt.Sprintf("%s error: %v", op, e.Err)
}

// Unwrap exposes the underlying error.
func (e *EncryptionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfigError indicates a WireGuard configuration that cannot be generated
// or read for a device.
type ConfigError struct {
	Device  string
	Message string
	Err     error
}

// NewConfigError constructs a ConfigError for the given device.
func NewConfigError(device, message string, err error) error {
	return &ConfigError{Device: device, Message: message, Err: err}
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Device != "" {
		return fmt.Sprintf("wireguard config error [%s]: %s", e.Device, msg)
	}
	return fmt.Sprintf("wireguard config error: %s", msg)
}

// Unwrap exposes the underlying error.
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
