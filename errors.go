package beandi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// Base errors that are wrapped in typed errors when returned. Callers match
// them with errors.Is; the typed wrappers carry the diagnostic context.

var (
	// Definition errors.
	ErrDefinitionNil  = errors.New("bean definition cannot be nil")
	ErrTargetTypeNil  = errors.New("bean definition has no target type")
	ErrOverrideExists = errors.New("method override already declared for this method")

	// Instantiation errors.
	ErrTargetIsInterface    = errors.New("specified type is an interface")
	ErrNoDefaultConstructor = errors.New("no default constructor found")
	ErrConstructorArgs      = errors.New("constructor arguments do not match")

	// ErrMethodInjectionNotSupported is returned by the simple instantiation
	// strategy whenever a definition declares method overrides and no
	// MethodInjector has been installed. This is a capability gap, not a bug:
	// method injection is an optional extension tier.
	ErrMethodInjectionNotSupported = errors.New("method injection not supported by this instantiation strategy")

	// Proxy errors.
	ErrClassProxyUnavailable = errors.New("subclass proxy support is not installed")
	ErrTargetClassUnknown    = errors.New("cannot determine target class: either an interface or a target is required for proxy creation")
)

var (
	_ error = InstantiationError{}
	_ error = DefinitionStoreError{}
	_ error = ProxyConfigError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// InstantiationError indicates a bean could not be instantiated: the target
// is an interface, no usable constructor exists, or the constructor itself
// failed. It always carries the offending type and, when available, the
// underlying cause.
type InstantiationError struct {
	Type     reflect.Type
	BeanName string
	Cause    error
}

func (e InstantiationError) Error() string {
	var b strings.Builder
	b.WriteString("failed to instantiate ")
	b.WriteString(formatType(e.Type))
	if e.BeanName != "" {
		b.WriteString(fmt.Sprintf(" (bean %q)", e.BeanName))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e InstantiationError) Unwrap() error {
	return e.Cause
}

// DefinitionStoreError indicates a factory-method invocation failed. The
// three sub-causes are illegal arguments, an inaccessible (unexported)
// method, and a failure inside the factory method itself. In the last case
// Cause is the original error raised by the factory method, never a
// reflective wrapper, so errors.Is points at the real failure.
type DefinitionStoreError struct {
	BeanName string
	Method   string
	Detail   string
	Args     []any
	Cause    error
}

func (e DefinitionStoreError) Error() string {
	var b strings.Builder
	if e.BeanName != "" {
		b.WriteString(fmt.Sprintf("bean %q: ", e.BeanName))
	}
	b.WriteString(e.Detail)
	if len(e.Args) > 0 {
		b.WriteString("; args: ")
		b.WriteString(formatArgs(e.Args))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e DefinitionStoreError) Unwrap() error {
	return e.Cause
}

// ProxyConfigError indicates a proxy configuration that cannot produce a
// proxy, such as a missing target class on the class-proxy path.
type ProxyConfigError struct {
	Detail string
	Cause  error
}

func (e ProxyConfigError) Error() string {
	if e.Detail != "" && e.Cause != nil {
		return fmt.Sprintf("proxy config: %s: %v", e.Detail, e.Cause)
	}
	if e.Detail != "" {
		return "proxy config: " + e.Detail
	}
	return fmt.Sprintf("proxy config: %v", e.Cause)
}

func (e ProxyConfigError) Unwrap() error {
	return e.Cause
}

// formatArgs renders an argument list for error messages.
func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = fmt.Sprintf("%v (%s)", a, formatType(reflect.TypeOf(a)))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		return "*" + formatType(t.Elem())
	case reflect.Slice:
		return "[]" + formatType(t.Elem())
	case reflect.Map:
		return "map[" + formatType(t.Key()) + "]" + formatType(t.Elem())
	case reflect.Interface:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	case reflect.Struct:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	case reflect.Func:
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
