package beandi

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/rvasquez/beandi/internal/reflection"
)

// OverrideKind distinguishes the two flavors of method injection.
type OverrideKind int

const (
	// LookupOverride replaces a method with a container lookup of another bean.
	LookupOverride OverrideKind = iota

	// ReplaceOverride substitutes an arbitrary implementation for a method.
	ReplaceOverride
)

// String returns the string representation of the OverrideKind.
func (k OverrideKind) String() string {
	switch k {
	case LookupOverride:
		return "Lookup"
	case ReplaceOverride:
		return "Replace"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// MethodOverride declares that a single method of a bean must be supplied
// dynamically at runtime rather than by its direct implementation.
type MethodOverride struct {
	MethodName string
	Kind       OverrideKind

	// BeanName is the bean to look up for LookupOverride.
	BeanName string

	// Replacer runs in place of the original method for ReplaceOverride.
	Replacer func(args ...any) (any, error)
}

// MethodOverrideSet is the set of declared method-injection overrides for a
// definition. The instantiation strategy only inspects emptiness: any
// declared override forces the method-injection path.
type MethodOverrideSet struct {
	overrides []MethodOverride
}

// Add declares an override. Declaring two overrides for the same method is
// rejected.
func (s *MethodOverrideSet) Add(o MethodOverride) error {
	if o.MethodName == "" {
		return fmt.Errorf("method override has no method name")
	}
	for _, existing := range s.overrides {
		if existing.MethodName == o.MethodName {
			return fmt.Errorf("%w: %s", ErrOverrideExists, o.MethodName)
		}
	}
	s.overrides = append(s.overrides, o)
	return nil
}

// Empty reports whether no overrides are declared.
func (s *MethodOverrideSet) Empty() bool {
	return s == nil || len(s.overrides) == 0
}

// Len returns the number of declared overrides.
func (s *MethodOverrideSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.overrides)
}

// Get returns the override declared for the named method, if any.
func (s *MethodOverrideSet) Get(methodName string) (MethodOverride, bool) {
	if s == nil {
		return MethodOverride{}, false
	}
	for _, o := range s.overrides {
		if o.MethodName == methodName {
			return o, true
		}
	}
	return MethodOverride{}, false
}

// All returns a copy of the declared overrides in declaration order.
func (s *MethodOverrideSet) All() []MethodOverride {
	if s == nil {
		return nil
	}
	out := make([]MethodOverride, len(s.overrides))
	copy(out, s.overrides)
	return out
}

// BeanDefinition describes how to produce a single managed bean: a target
// type, an optional explicit constructor function, and the declared method
// overrides. The definition also carries the resolved-constructor cache
// populated on first instantiation and reused for the definition's lifetime.
type BeanDefinition struct {
	id string

	// Type is the target type of the bean: a struct, a pointer to struct,
	// or (invalidly, for direct instantiation) an interface.
	Type reflect.Type

	// Constructor is an optional explicit constructor function producing
	// the bean. When nil, instantiation falls back to a zero value of Type.
	Constructor any

	// Overrides holds the declared method-injection overrides.
	Overrides MethodOverrideSet

	// resolved caches the constructor resolved on first use. Resolution is
	// serialized by mu; once published the pointer never changes, so reads
	// outside the lock are safe.
	resolved atomic.Pointer[reflection.Constructor]
	mu       sync.Mutex
}

// NewBeanDefinition creates a definition for the given target type.
func NewBeanDefinition(target reflect.Type) *BeanDefinition {
	return &BeanDefinition{
		id:   uuid.NewString(),
		Type: target,
	}
}

// NewBeanDefinitionFor creates a definition whose target type is derived
// from the type parameter, following the usual pointer-to-struct convention
// for concrete types.
func NewBeanDefinitionFor[T any]() *BeanDefinition {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Struct {
		t = reflect.PointerTo(t)
	}
	return NewBeanDefinition(t)
}

// ID returns the unique identifier assigned to this definition.
func (d *BeanDefinition) ID() string {
	return d.id
}

// String returns a diagnostic description of the definition.
func (d *BeanDefinition) String() string {
	return fmt.Sprintf("BeanDefinition[%s, type=%s, overrides=%d]", d.id, formatType(d.Type), d.Overrides.Len())
}

// Validate checks that the definition is well formed enough to attempt
// instantiation. It does not resolve the constructor.
func (d *BeanDefinition) Validate() error {
	if d == nil {
		return ErrDefinitionNil
	}
	if d.Type == nil {
		return ErrTargetTypeNil
	}
	return nil
}

// resolvedConstructor returns the cached constructor, if resolved.
func (d *BeanDefinition) resolvedConstructor() *reflection.Constructor {
	return d.resolved.Load()
}

// resolveConstructor returns the definition's no-argument constructor,
// resolving and caching it on first call. Resolution runs under the
// definition's own mutex so concurrent first-time callers perform exactly
// one lookup and observe the same published value.
func (d *BeanDefinition) resolveConstructor(name string) (*reflection.Constructor, error) {
	if c := d.resolved.Load(); c != nil {
		return c, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if c := d.resolved.Load(); c != nil {
		return c, nil
	}

	info := globalTypeCache.getTypeInfo(d.Type)
	if info.IsInterface {
		return nil, InstantiationError{Type: d.Type, BeanName: name, Cause: ErrTargetIsInterface}
	}

	var c *reflection.Constructor
	if d.Constructor != nil {
		analyzed, err := reflection.AnalyzeConstructor(d.Constructor, 0)
		if err != nil {
			return nil, InstantiationError{
				Type:     d.Type,
				BeanName: name,
				Cause:    fmt.Errorf("%w: %w", ErrNoDefaultConstructor, err),
			}
		}
		if !analyzed.Produces.AssignableTo(d.Type) {
			return nil, InstantiationError{
				Type:     d.Type,
				BeanName: name,
				Cause:    fmt.Errorf("%w: constructor produces %s", ErrNoDefaultConstructor, formatType(analyzed.Produces)),
			}
		}
		c = analyzed
	} else {
		if !info.Instantiable {
			return nil, InstantiationError{Type: d.Type, BeanName: name, Cause: ErrNoDefaultConstructor}
		}
		c = reflection.ZeroConstructor(d.Type)
	}

	d.resolved.Store(c)
	return c, nil
}
