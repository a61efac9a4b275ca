// Package reflection provides the low-level reflective machinery behind bean
// instantiation: constructor shape analysis, argument preparation, and
// invocation with panic containment.
package reflection

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"unicode"
	"unicode/utf8"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Constructor is an analyzed, invocable producer of bean instances. It is
// either a real constructor function or a synthesized zero-value constructor
// for a concrete target type.
type Constructor struct {
	// Fn is the constructor function. Invalid when Zero is set.
	Fn reflect.Value

	// Type is the function type of Fn. Nil when Zero is set.
	Type reflect.Type

	// Produces is the type of the first non-error return value, or the
	// target type for zero-value constructors.
	Produces reflect.Type

	// HasErrorReturn reports whether the last return value is an error.
	HasErrorReturn bool

	// Zero marks a synthesized constructor that produces a zero value of
	// Produces via reflect.New instead of calling a function.
	Zero bool
}

// PanicError captures a panic raised inside a constructor or factory method,
// together with the stack at the point of the panic.
type PanicError struct {
	Fn    reflect.Type
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", formatFn(e.Fn), e.Value)
}

func formatFn(t reflect.Type) string {
	if t == nil {
		return "constructor"
	}
	return t.String()
}

// AnalyzeConstructor validates fn as a constructor function returning T or
// (T, error) and taking exactly wantIn parameters. It rejects anything that
// is not a function outright.
func AnalyzeConstructor(fn any, wantIn int) (*Constructor, error) {
	if fn == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %s", t)
	}
	if v.IsNil() {
		return nil, fmt.Errorf("constructor cannot be a nil function")
	}

	if wantIn >= 0 && t.NumIn() != wantIn {
		return nil, fmt.Errorf("constructor %s takes %d argument(s), want %d", t, t.NumIn(), wantIn)
	}

	c := &Constructor{Fn: v, Type: t}

	switch t.NumOut() {
	case 1:
		if t.Out(0) == errType {
			return nil, fmt.Errorf("constructor %s must return a value, not only an error", t)
		}
		c.Produces = t.Out(0)
	case 2:
		if t.Out(1) != errType {
			return nil, fmt.Errorf("constructor %s second return value must be error", t)
		}
		c.Produces = t.Out(0)
		c.HasErrorReturn = true
	default:
		return nil, fmt.Errorf("constructor %s must return T or (T, error)", t)
	}

	return c, nil
}

// ZeroConstructor synthesizes a constructor producing zero values of t.
// t must be a struct or pointer-to-struct; the caller is expected to have
// ruled out interfaces already.
func ZeroConstructor(t reflect.Type) *Constructor {
	return &Constructor{Produces: t, Zero: true}
}

// BuildArgs converts raw arguments into reflect values matching the
// constructor's parameter list, checking arity and assignability.
func BuildArgs(t reflect.Type, args []any) ([]reflect.Value, error) {
	if t.IsVariadic() {
		if len(args) < t.NumIn()-1 {
			return nil, fmt.Errorf("expected at least %d argument(s), got %d", t.NumIn()-1, len(args))
		}
	} else if len(args) != t.NumIn() {
		return nil, fmt.Errorf("expected %d argument(s), got %d", t.NumIn(), len(args))
	}

	values := make([]reflect.Value, len(args))
	for i, arg := range args {
		paramType := paramTypeAt(t, i)
		if arg == nil {
			switch paramType.Kind() {
			case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
				values[i] = reflect.Zero(paramType)
				continue
			}
			return nil, fmt.Errorf("argument %d is nil but parameter type %s is not nilable", i, paramType)
		}

		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(paramType) {
			return nil, fmt.Errorf("argument %d: %s is not assignable to %s", i, v.Type(), paramType)
		}
		values[i] = v
	}

	return values, nil
}

func paramTypeAt(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(i)
}

// Call invokes the constructor with the given arguments. Panics inside the
// constructor are contained and surface as *PanicError; an error return from
// the constructor is passed through unmodified.
func (c *Constructor) Call(args []reflect.Value) (result any, err error) {
	if c.Zero {
		return newZeroValue(c.Produces), nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Fn: c.Type, Value: r, Stack: debug.Stack()}
		}
	}()

	results := c.Fn.Call(args)

	if c.HasErrorReturn {
		if errVal := results[len(results)-1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}

	return results[0].Interface(), nil
}

func newZeroValue(t reflect.Type) any {
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface()
	}
	return reflect.New(t).Elem().Interface()
}

// Method is a factory method bound to its receiver, ready to invoke.
type Method struct {
	Name string
	Recv reflect.Value
	Fn   reflect.Value // bound method value
	Type reflect.Type  // function type of Fn
}

// LookupMethod finds an exported method by name on the receiver. The second
// return distinguishes "not found" (false, nil error) from "found but not
// callable" cases reported by the error.
func LookupMethod(recv any, name string) (*Method, bool, error) {
	if recv == nil {
		return nil, false, fmt.Errorf("factory bean cannot be nil")
	}
	if name == "" {
		return nil, false, fmt.Errorf("factory method name cannot be empty")
	}

	if !IsExportedName(name) {
		// Unexported methods are invisible to reflection; report as an
		// access failure rather than absence.
		return nil, true, fmt.Errorf("method %q is unexported", name)
	}

	v := reflect.ValueOf(recv)
	m := v.MethodByName(name)
	if !m.IsValid() {
		return nil, false, nil
	}

	return &Method{
		Name: name,
		Recv: v,
		Fn:   m,
		Type: m.Type(),
	}, true, nil
}

// Invoke calls the bound method with the given arguments, containing panics
// the same way Constructor.Call does. Error returns from the method are
// passed through unmodified so callers can classify the original failure.
func (m *Method) Invoke(args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Fn: m.Type, Value: r, Stack: debug.Stack()}
		}
	}()

	return m.Fn.Call(args), nil
}

// IsExportedName reports whether name starts with an upper-case letter.
func IsExportedName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
