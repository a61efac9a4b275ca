package beandi

import (
	"fmt"
	"reflect"

	"github.com/rvasquez/beandi/internal/reflection"
)

// Proxied is the self-marker interface tagging already-proxied objects. It
// declares no methods; it participates in proxy-interface lists by type
// identity only and is never counted as a real proxy interface.
type Proxied interface{}

var proxiedType = reflect.TypeOf((*Proxied)(nil)).Elem()

// ProxyMechanism identifies which proxying mechanism was selected.
type ProxyMechanism int

const (
	// InterfaceProxy forwards calls through an invocation handler
	// implementing the configured interfaces.
	InterfaceProxy ProxyMechanism = iota

	// ClassProxy is a generated runtime subclass of the target's concrete
	// class, produced by the external bytecode subsystem.
	ClassProxy
)

// String returns the string representation of the ProxyMechanism.
func (m ProxyMechanism) String() string {
	switch m {
	case InterfaceProxy:
		return "InterfaceProxy"
	case ClassProxy:
		return "ClassProxy"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Proxy is an aspect-capable wrapper around a target object.
type Proxy interface {
	// GetProxy returns the materialized proxy object.
	GetProxy() any

	// Mechanism reports how the proxy was constructed.
	Mechanism() ProxyMechanism
}

// InterfaceProxier creates interface-based proxies.
type InterfaceProxier func(cfg *ProxyConfig) (Proxy, error)

// ClassProxier creates subclass-based proxies. It is provided by the
// bytecode-generation subsystem and only consulted on the class-proxy path.
type ClassProxier func(cfg *ProxyConfig) (Proxy, error)

// ProxyConfig describes a single proxy-creation request. Configs are built
// per request and not cached.
type ProxyConfig struct {
	// Optimize lets the factory pick the most aggressive mechanism.
	Optimize bool

	// ProxyTargetClass forces subclass-based proxying of the concrete class.
	ProxyTargetClass bool

	// Interfaces is the ordered set of proxy interfaces.
	Interfaces []reflect.Type

	// TargetClass is the resolved type of the proxy target. It must be
	// known before a class proxy can be created.
	TargetClass reflect.Type

	// Target is the object calls are ultimately forwarded to.
	Target any
}

// AddInterface appends an interface type to the proxy-interface set.
func (c *ProxyConfig) AddInterface(t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Interface {
		return ProxyConfigError{Detail: fmt.Sprintf("%s is not an interface", formatType(t))}
	}
	c.Interfaces = append(c.Interfaces, t)
	return nil
}

// hasOnlyMarkerInterfaces reports whether no real proxy interface was
// supplied: the set is empty, or holds exactly the self-marker interface.
func (c *ProxyConfig) hasOnlyMarkerInterfaces() bool {
	if len(c.Interfaces) == 0 {
		return true
	}
	return len(c.Interfaces) == 1 && c.Interfaces[0] == proxiedType
}

// ProxyFactory selects between interface-based and subclass-based proxying
// for each configuration handed to it.
type ProxyFactory struct {
	iface InterfaceProxier
	class ClassProxier
}

// NewProxyFactory creates a factory. The interface-proxy mechanism is built
// in; the class-proxy mechanism must be installed with WithClassProxier
// before the class path can succeed.
func NewProxyFactory(opts ...ProxyOption) *ProxyFactory {
	options := &proxyOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyProxy(options)
		}
	}

	f := &ProxyFactory{
		iface: options.iface,
		class: options.class,
	}
	if f.iface == nil {
		f.iface = newInterfaceProxy
	}
	return f
}

// CreateProxy chooses the proxy mechanism for the given config and creates
// the proxy. A subclass proxy is used when the optimize or proxyTargetClass
// flags are set or no real proxy interface was supplied; an interface target
// class always falls back to interface proxying, since there is no concrete
// class to subclass.
func (f *ProxyFactory) CreateProxy(cfg *ProxyConfig) (Proxy, error) {
	if cfg == nil {
		return nil, ProxyConfigError{Detail: "config cannot be nil"}
	}

	if cfg.Optimize || cfg.ProxyTargetClass || cfg.hasOnlyMarkerInterfaces() {
		targetClass := cfg.TargetClass
		if targetClass == nil {
			return nil, ProxyConfigError{Cause: ErrTargetClassUnknown}
		}
		if targetClass.Kind() == reflect.Interface {
			return f.iface(cfg)
		}
		if f.class == nil {
			return nil, ProxyConfigError{
				Detail: fmt.Sprintf("cannot create class proxy for %s", formatType(targetClass)),
				Cause:  ErrClassProxyUnavailable,
			}
		}
		return f.class(cfg)
	}

	return f.iface(cfg)
}

// interfaceProxy is the built-in interface-based proxy: an invocation
// handler that dispatches calls by method name against the target,
// restricted to methods declared by the configured proxy interfaces.
type interfaceProxy struct {
	config *ProxyConfig
}

func newInterfaceProxy(cfg *ProxyConfig) (Proxy, error) {
	return &interfaceProxy{config: cfg}, nil
}

// GetProxy returns the handler itself; callers route invocations through
// Invoke.
func (p *interfaceProxy) GetProxy() any {
	return p
}

// Mechanism reports InterfaceProxy.
func (p *interfaceProxy) Mechanism() ProxyMechanism {
	return InterfaceProxy
}

// Interfaces returns the configured proxy interfaces.
func (p *interfaceProxy) Interfaces() []reflect.Type {
	return p.config.Interfaces
}

// Invoke forwards a call to the proxy target. The method must be declared
// by one of the configured proxy interfaces (the self-marker declares
// nothing and never matches).
func (p *interfaceProxy) Invoke(methodName string, args ...any) ([]any, error) {
	if !p.declares(methodName) {
		return nil, ProxyConfigError{Detail: fmt.Sprintf("method %q is not declared by any proxy interface", methodName)}
	}
	if p.config.Target == nil {
		return nil, ProxyConfigError{Detail: "proxy has no target"}
	}

	method, found, err := reflection.LookupMethod(p.config.Target, methodName)
	if err != nil || !found {
		return nil, ProxyConfigError{
			Detail: fmt.Sprintf("target %s does not implement %q", formatType(reflect.TypeOf(p.config.Target)), methodName),
			Cause:  err,
		}
	}

	values, err := reflection.BuildArgs(method.Type, args)
	if err != nil {
		return nil, ProxyConfigError{
			Detail: fmt.Sprintf("illegal arguments to %q", methodName),
			Cause:  err,
		}
	}

	results, err := method.Invoke(values)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(results))
	for i, r := range results {
		out[i] = r.Interface()
	}
	return out, nil
}

func (p *interfaceProxy) declares(methodName string) bool {
	for _, iface := range p.config.Interfaces {
		if iface == proxiedType {
			continue
		}
		if _, ok := iface.MethodByName(methodName); ok {
			return true
		}
	}
	return false
}
