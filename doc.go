// Package beandi implements the instantiation core of a dependency-injection
// container: the strategy that turns a bean definition into a live instance,
// and the selector that decides how aspect-oriented proxies are built.
//
// # Instantiation
//
// A SimpleInstantiationStrategy produces instances from BeanDefinitions. A
// definition with no method overrides is instantiated through its no-argument
// constructor, resolved once and cached on the definition:
//
//	def := beandi.NewBeanDefinitionFor[UserService]()
//	def.Constructor = NewUserService
//
//	strategy := beandi.NewSimpleStrategy()
//	svc, err := strategy.Instantiate(ctx, def, "userService", owner)
//
// Definitions that declare method overrides need runtime subclass generation
// and are delegated to an installed MethodInjector; without one, the strategy
// fails with ErrMethodInjectionNotSupported. Explicit-constructor and
// factory-method variants cover containers that resolve the producer
// themselves.
//
// During a factory-method invocation the method is recorded on a child
// context; factory methods that accept a context can ask
// CurrentFactoryMethod to tell container-driven calls from direct user calls.
//
// # Proxy selection
//
// A ProxyFactory chooses between interface-based and subclass-based proxying
// per configuration. Subclass proxying is used when the optimize or
// proxy-target-class flags are set, or when no real proxy interface was
// supplied; it requires a concrete target class and an installed
// ClassProxier. Everything else gets the built-in invocation-handler proxy
// over the configured interfaces.
package beandi
