package beandi

import (
	"context"
	"fmt"
	"reflect"

	"github.com/rvasquez/beandi/internal/reflection"
)

// FactoryMethod identifies a factory method while the container is invoking
// it. Factory-method bodies receive it through their context and can use it
// to distinguish container-driven invocation from a direct user call.
type FactoryMethod struct {
	// Name is the invoked method's name.
	Name string

	// FactoryType is the type of the factory bean the method is bound to.
	FactoryType reflect.Type
}

// String returns a diagnostic description of the factory method.
func (fm *FactoryMethod) String() string {
	return formatType(fm.FactoryType) + "." + fm.Name
}

type factoryMethodKey struct{}

// CurrentFactoryMethod returns the factory method currently being invoked by
// the container on the calling context, or false if none. Each invocation
// derives a child context carrying its own marker, so after a nested
// invocation returns the outer method's marker is visible again.
func CurrentFactoryMethod(ctx context.Context) (*FactoryMethod, bool) {
	fm, ok := ctx.Value(factoryMethodKey{}).(*FactoryMethod)
	return fm, ok
}

// withFactoryMethod records fm as the currently invoked factory method.
func withFactoryMethod(ctx context.Context, fm *FactoryMethod) context.Context {
	return context.WithValue(ctx, factoryMethodKey{}, fm)
}

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// buildFactoryArgs prepares the reflect argument list for a factory method.
// When the method's first parameter is a context.Context, the
// marker-carrying context is injected there and user arguments fill the
// remaining parameters.
func buildFactoryArgs(ctx context.Context, m *reflection.Method, args []any) ([]reflect.Value, error) {
	t := m.Type
	if t.NumIn() > 0 && t.In(0) == contextType {
		rest, err := reflection.BuildArgs(shiftParams(t), args)
		if err != nil {
			return nil, err
		}
		return append([]reflect.Value{reflect.ValueOf(ctx)}, rest...), nil
	}
	return reflection.BuildArgs(t, args)
}

// shiftParams returns a function type identical to t minus its leading
// context parameter, used only for argument checking.
func shiftParams(t reflect.Type) reflect.Type {
	in := make([]reflect.Type, 0, t.NumIn()-1)
	for i := 1; i < t.NumIn(); i++ {
		in = append(in, t.In(i))
	}
	out := make([]reflect.Type, 0, t.NumOut())
	for i := 0; i < t.NumOut(); i++ {
		out = append(out, t.Out(i))
	}
	return reflect.FuncOf(in, out, t.IsVariadic())
}

// factoryResult extracts the produced bean from the method's return values.
// A trailing non-nil error surfaces as a DefinitionStoreError whose cause is
// the exact error the factory method returned.
func factoryResult(beanName, methodName string, results []reflect.Value) (any, error) {
	var produced any
	for _, r := range results {
		if r.Type().Implements(errType) {
			if !isNilValue(r) {
				return nil, DefinitionStoreError{
					BeanName: beanName,
					Method:   methodName,
					Detail:   fmt.Sprintf("factory method %q failed", methodName),
					Cause:    r.Interface().(error),
				}
			}
			continue
		}
		if produced == nil {
			produced = r.Interface()
		}
	}

	if produced == nil {
		return nil, DefinitionStoreError{
			BeanName: beanName,
			Method:   methodName,
			Detail:   fmt.Sprintf("factory method %q produced no value", methodName),
		}
	}

	return produced, nil
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
