package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/wgcm/internal/semver"
)

// ErrPluginNotFound is returned when the requested plugin is not loaded or
// cannot be located.
type ErrPluginNotFound struct {
	Name string
	Path string
}

func (e ErrPluginNotFound) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("plugin '%s' not found in %s\nHint: install %s.so there or use a built-in plugin name", e.Name, e.Path, e.Name)
	}
	return fmt.Sprintf("plugin '%s' not found\nHint: list it under [Extension] plugins before use", e.Name)
}

// PluginError is the base interface for errors raised on behalf of a plugin.
type PluginError interface {
	error
	PluginName() string
	Unwrap() error
}

// LoadingError aborts loading of a single plugin: a missing declaration, an
// unmet version requirement or a malformed capability record.
type LoadingError struct {
	Plugin string
	Err    error
}

// NewLoadingError creates a new LoadingError.
func NewLoadingError(plugin string, err error) *LoadingError {
	return &LoadingError{Plugin: plugin, Err: err}
}

func (e *LoadingError) Error() string {
	if e.Err == nil {
		return "failed to load plugin " + e.Plugin
	}
	return "failed to load plugin " + e.Plugin + ": " + e.Err.Error()
}

// PluginName returns the plugin that failed to load.
func (e *LoadingError) PluginName() string {
	return e.Plugin
}

// Unwrap returns the underlying cause.
func (e *LoadingError) Unwrap() error {
	return e.Err
}

// Is checks if this error matches another LoadingError.
func (e *LoadingError) Is(target error) bool {
	_, ok := target.(*LoadingError)
	return ok
}

// RuntimeError wraps any failure raised inside plugin supplied code: a
// phase function or a parameter transform.
type RuntimeError struct {
	Plugin string
	Target string
	Err    error
}

// NewRuntimeError creates a new RuntimeError.
func NewRuntimeError(plugin, target string, err error) *RuntimeError {
	return &RuntimeError{Plugin: plugin, Target: target, Err: err}
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString("plugin runtime error")
	if e.Plugin != "" {
		b.WriteString(" in " + e.Plugin)
	}
	if e.Target != "" {
		b.WriteString(" (" + e.Target + ")")
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// PluginName returns the plugin whose code failed.
func (e *RuntimeError) PluginName() string {
	return e.Plugin
}

// Unwrap returns the original cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// Is checks if this error matches another RuntimeError.
func (e *RuntimeError) Is(target error) bool {
	_, ok := target.(*RuntimeError)
	return ok
}

// PanicError carries a value recovered from a panicking plugin function.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// UnmetRequirementError names the requirement clauses the host version fails.
type UnmetRequirementError struct {
	Requirement string
	Host        string
	Failed      []semver.Clause
}

func (e *UnmetRequirementError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, c := range e.Failed {
		parts[i] = c.String()
	}
	return fmt.Sprintf("host version %s does not satisfy %s (failing: %s)", e.Host, e.Requirement, strings.Join(parts, ", "))
}

// MissingDeclarationError is returned when a plugin omits a required declaration.
type MissingDeclarationError struct {
	Field string
}

func (e *MissingDeclarationError) Error() string {
	return fmt.Sprintf("plugin does not declare required field %s", e.Field)
}

// UnknownParameterError is returned when an override names a parameter the
// callable does not declare.
type UnknownParameterError struct {
	Name     string
	Declared []string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("unknown parameter %q (declared: %s)", e.Name, strings.Join(e.Declared, ", "))
}

// ParameterAccessError is returned when a caller overrides a host-only parameter.
type ParameterAccessError struct {
	Name string
}

func (e *ParameterAccessError) Error() string {
	return fmt.Sprintf("parameter %q is supplied by the host and cannot be overridden", e.Name)
}

// DuplicateParameterError is returned when a parameter list declares a name twice.
type DuplicateParameterError struct {
	Name string
}

func (e *DuplicateParameterError) Error() string {
	return fmt.Sprintf("parameter %q declared more than once", e.Name)
}

// ContextKeyError is returned when a default needs a context value that is absent.
type ContextKeyError struct {
	Parameter string
	Key       string
	Err       error
}

func (e *ContextKeyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parameter %q: %v", e.Parameter, e.Err)
	}
	return fmt.Sprintf("parameter %q requires context value %q", e.Parameter, e.Key)
}

// Unwrap returns the template error, if any.
func (e *ContextKeyError) Unwrap() error {
	return e.Err
}

// CapabilityNotFoundError is returned for an unknown or disabled capability.
type CapabilityNotFoundError struct {
	Plugin string
	Kind   string
	Name   string
}

func (e *CapabilityNotFoundError) Error() string {
	return fmt.Sprintf("plugin '%s' has no %s capability '%s'", e.Plugin, e.Kind, e.Name)
}

// PluginName returns the plugin that was queried.
func (e *CapabilityNotFoundError) PluginName() string {
	return e.Plugin
}

// Unwrap implements PluginError.
func (e *CapabilityNotFoundError) Unwrap() error {
	return nil
}

// PhaseNotFoundError is returned when a capability lacks the requested phase.
type PhaseNotFoundError struct {
	Capability string
	Phase      string
}

func (e *PhaseNotFoundError) Error() string {
	return fmt.Sprintf("capability '%s' has no '%s' phase", e.Capability, e.Phase)
}

// ServiceExistsError is returned when a process name is already running.
type ServiceExistsError struct {
	ProcessName string
}

func (e *ServiceExistsError) Error() string {
	return fmt.Sprintf("service process '%s' is already running", e.ProcessName)
}

// ServiceNotFoundError is returned when no live service uses the process name.
type ServiceNotFoundError struct {
	ProcessName string
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("no running service process named '%s'", e.ProcessName)
}

// AsPluginError attempts to convert any error to a PluginError.
func AsPluginError(err error) (PluginError, bool) {
	var pluginErr PluginError
	if errors.As(err, &pluginErr) {
		return pluginErr, true
	}
	return nil, false
}
