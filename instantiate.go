package beandi

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/gburgyan/go-timing"

	"github.com/rvasquez/beandi/internal/reflection"
)

// BeanFactory is the owning container on whose behalf beans are
// instantiated. It is an external collaborator; this package only threads it
// through to the method-injection extension and to factory methods.
type BeanFactory interface {
	// GetBean returns the bean registered under the given name.
	GetBean(ctx context.Context, name string) (any, error)
}

// MethodInjector instantiates beans whose definitions declare method
// overrides, typically by generating a dynamic subclass that honors them.
// It is an optional capability: the simple strategy has none installed by
// default and fails with ErrMethodInjectionNotSupported instead.
type MethodInjector interface {
	Instantiate(ctx context.Context, def *BeanDefinition, name string, owner BeanFactory) (any, error)
	InstantiateWithConstructor(ctx context.Context, def *BeanDefinition, name string, owner BeanFactory, ctor any, args ...any) (any, error)
}

// InstantiationStrategy produces bean instances from definitions. Callers
// choose the operation matching how the definition designates its producer:
// resolved default constructor, explicit constructor, or factory method.
type InstantiationStrategy interface {
	Instantiate(ctx context.Context, def *BeanDefinition, name string, owner BeanFactory) (any, error)
	InstantiateWithConstructor(ctx context.Context, def *BeanDefinition, name string, owner BeanFactory, ctor any, args ...any) (any, error)
	InstantiateWithFactory(ctx context.Context, def *BeanDefinition, name string, owner BeanFactory, factoryBean any, methodName string, args ...any) (any, error)
}

// SimpleInstantiationStrategy is the base instantiation strategy: direct
// constructor and factory-method invocation, with method injection deferred
// to an optionally installed MethodInjector.
type SimpleInstantiationStrategy struct {
	injector       MethodInjector
	elevate        AccessElevator
	timing         bool
	onInstantiated func(t reflect.Type, name string, d time.Duration)
}

var _ InstantiationStrategy = (*SimpleInstantiationStrategy)(nil)

// NewSimpleStrategy creates a strategy with the given options.
func NewSimpleStrategy(opts ...StrategyOption) *SimpleInstantiationStrategy {
	options := &strategyOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyStrategy(options)
		}
	}

	return &SimpleInstantiationStrategy{
		injector:       options.injector,
		elevate:        options.elevate,
		timing:         options.timing,
		onInstantiated: options.onInstantiated,
	}
}

// Instantiate produces a bean using the definition's no-argument
// constructor, resolving and caching it on first use. Definitions declaring
// method overrides are delegated to the method-injection extension.
func (s *SimpleInstantiationStrategy) Instantiate(ctx context.Context, def *BeanDefinition, name string, owner BeanFactory) (any, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	if !def.Overrides.Empty() {
		if s.injector == nil {
			return nil, ErrMethodInjectionNotSupported
		}
		return s.injector.Instantiate(ctx, def, name, owner)
	}

	ctor, err := def.resolveConstructor(name)
	if err != nil {
		return nil, err
	}

	complete := s.startTiming(ctx, "instantiate "+name)
	defer complete()

	start := time.Now()
	instance, err := ctor.Call(nil)
	if err != nil {
		return nil, InstantiationError{Type: def.Type, BeanName: name, Cause: err}
	}

	s.notify(def.Type, name, time.Since(start))
	return instance, nil
}

// InstantiateWithConstructor produces a bean by invoking the given
// constructor function with the given arguments, bypassing the definition's
// resolved-constructor cache.
func (s *SimpleInstantiationStrategy) InstantiateWithConstructor(ctx context.Context, def *BeanDefinition, name string, owner BeanFactory, ctor any, args ...any) (any, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	if !def.Overrides.Empty() {
		if s.injector == nil {
			return nil, ErrMethodInjectionNotSupported
		}
		return s.injector.InstantiateWithConstructor(ctx, def, name, owner, ctor, args...)
	}

	var analyzed *reflection.Constructor
	err := s.makeCallable(func() error {
		var err error
		analyzed, err = reflection.AnalyzeConstructor(ctor, -1)
		return err
	})
	if err != nil {
		return nil, InstantiationError{Type: def.Type, BeanName: name, Cause: err}
	}

	values, err := reflection.BuildArgs(analyzed.Type, args)
	if err != nil {
		return nil, InstantiationError{
			Type:     def.Type,
			BeanName: name,
			Cause:    fmt.Errorf("%w: %w", ErrConstructorArgs, err),
		}
	}

	complete := s.startTiming(ctx, "instantiate "+name)
	defer complete()

	start := time.Now()
	instance, err := analyzed.Call(values)
	if err != nil {
		return nil, InstantiationError{Type: def.Type, BeanName: name, Cause: err}
	}

	s.notify(def.Type, name, time.Since(start))
	return instance, nil
}

// InstantiateWithFactory produces a bean by invoking the named factory
// method on factoryBean. The method is recorded as the currently invoked
// factory method for the duration of the call: the marker rides on a child
// context, so a nested factory invocation sees its own marker and the outer
// one is visible again as soon as the nested call returns.
func (s *SimpleInstantiationStrategy) InstantiateWithFactory(ctx context.Context, def *BeanDefinition, name string, owner BeanFactory, factoryBean any, methodName string, args ...any) (any, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	factoryType := reflect.TypeOf(factoryBean)

	var method *reflection.Method
	err := s.makeCallable(func() error {
		m, found, err := reflection.LookupMethod(factoryBean, methodName)
		if err != nil {
			if found {
				return DefinitionStoreError{
					BeanName: name,
					Method:   methodName,
					Detail:   fmt.Sprintf("cannot access factory method %q on %s; is it exported?", methodName, formatType(factoryType)),
				}
			}
			return DefinitionStoreError{
				BeanName: name,
				Method:   methodName,
				Detail:   err.Error(),
			}
		}
		if !found {
			return DefinitionStoreError{
				BeanName: name,
				Method:   methodName,
				Detail:   fmt.Sprintf("no factory method %q on %s", methodName, formatType(factoryType)),
			}
		}
		method = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	invokeCtx := withFactoryMethod(ctx, &FactoryMethod{Name: methodName, FactoryType: factoryType})

	values, err := buildFactoryArgs(invokeCtx, method, args)
	if err != nil {
		return nil, DefinitionStoreError{
			BeanName: name,
			Method:   methodName,
			Detail:   fmt.Sprintf("illegal arguments to factory method %q", methodName),
			Args:     args,
			Cause:    err,
		}
	}

	complete := s.startTiming(ctx, "factory "+methodName)
	defer complete()

	start := time.Now()
	results, err := method.Invoke(values)
	if err != nil {
		// A panic carrying an error is unwrapped to the original failure.
		var pe *reflection.PanicError
		if errors.As(err, &pe) {
			if cause, ok := pe.Value.(error); ok {
				err = cause
			}
		}
		return nil, DefinitionStoreError{
			BeanName: name,
			Method:   methodName,
			Detail:   fmt.Sprintf("factory method %q failed", methodName),
			Cause:    err,
		}
	}

	instance, err := factoryResult(name, methodName, results)
	if err != nil {
		return nil, err
	}

	s.notify(def.Type, name, time.Since(start))
	return instance, nil
}

// makeCallable runs an accessibility-sensitive operation through the
// configured access elevator, or directly when none is installed.
func (s *SimpleInstantiationStrategy) makeCallable(op func() error) error {
	if s.elevate != nil {
		return s.elevate(op)
	}
	return op()
}

// startTiming opens a timing sub-context when timing is enabled and returns
// its completion func.
func (s *SimpleInstantiationStrategy) startTiming(ctx context.Context, label string) func() {
	if !s.timing {
		return func() {}
	}
	_, complete := timing.Start(ctx, label)
	return complete
}

func (s *SimpleInstantiationStrategy) notify(t reflect.Type, name string, d time.Duration) {
	if s.onInstantiated != nil {
		s.onInstantiated(t, name, d)
	}
}
