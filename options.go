package beandi

import (
	"reflect"
	"time"
)

// AccessElevator runs an accessibility-sensitive operation with elevated
// access. Environments without such a concept leave it unset and operations
// run directly; this hook stays orthogonal to the instantiation logic.
type AccessElevator func(op func() error) error

// StrategyOption configures a SimpleInstantiationStrategy.
type StrategyOption interface {
	applyStrategy(*strategyOptions)
}

// strategyOptions holds strategy configuration.
type strategyOptions struct {
	injector       MethodInjector
	elevate        AccessElevator
	timing         bool
	onInstantiated func(t reflect.Type, name string, d time.Duration)
}

// strategyOptionFunc adapts a function to StrategyOption.
type strategyOptionFunc func(*strategyOptions)

func (f strategyOptionFunc) applyStrategy(opts *strategyOptions) {
	f(opts)
}

// WithMethodInjector installs the method-injection extension used for
// definitions that declare method overrides. Without it, such definitions
// fail with ErrMethodInjectionNotSupported.
func WithMethodInjector(mi MethodInjector) StrategyOption {
	return strategyOptionFunc(func(opts *strategyOptions) {
		opts.injector = mi
	})
}

// WithAccessElevator installs the hook wrapping accessibility-sensitive
// reflective operations.
func WithAccessElevator(fn AccessElevator) StrategyOption {
	return strategyOptionFunc(func(opts *strategyOptions) {
		opts.elevate = fn
	})
}

// WithTiming starts a timing sub-context for each instantiation and factory
// invocation. Callers are expected to have established a timing root on the
// context (timing.Root) before instantiating.
func WithTiming() StrategyOption {
	return strategyOptionFunc(func(opts *strategyOptions) {
		opts.timing = true
	})
}

// WithInstantiatedCallback registers a callback invoked after each
// successful instantiation with the produced type, bean name and elapsed
// time.
func WithInstantiatedCallback(fn func(t reflect.Type, name string, d time.Duration)) StrategyOption {
	return strategyOptionFunc(func(opts *strategyOptions) {
		opts.onInstantiated = fn
	})
}

// ProxyOption configures a ProxyFactory.
type ProxyOption interface {
	applyProxy(*proxyOptions)
}

// proxyOptions holds proxy factory configuration.
type proxyOptions struct {
	iface InterfaceProxier
	class ClassProxier
}

// proxyOptionFunc adapts a function to ProxyOption.
type proxyOptionFunc func(*proxyOptions)

func (f proxyOptionFunc) applyProxy(opts *proxyOptions) {
	f(opts)
}

// WithClassProxier installs the subclass-proxy creator. It is only consulted
// on the class-proxy path; leaving it unset is not an error until that path
// is taken.
func WithClassProxier(cp ClassProxier) ProxyOption {
	return proxyOptionFunc(func(opts *proxyOptions) {
		opts.class = cp
	})
}

// WithInterfaceProxier replaces the built-in interface-proxy creator.
func WithInterfaceProxier(ip InterfaceProxier) ProxyOption {
	return proxyOptionFunc(func(opts *proxyOptions) {
		opts.iface = ip
	})
}
