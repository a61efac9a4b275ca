package beandi

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvasquez/beandi/internal/reflection"
)

type InventoryService struct {
	Items []string
}

func TestMethodOverrideSet(t *testing.T) {
	t.Run("empty by default", func(t *testing.T) {
		var set MethodOverrideSet
		assert.True(t, set.Empty())
		assert.Equal(t, 0, set.Len())
	})

	t.Run("nil set is empty", func(t *testing.T) {
		var set *MethodOverrideSet
		assert.True(t, set.Empty())
		assert.Equal(t, 0, set.Len())
	})

	t.Run("add and get", func(t *testing.T) {
		var set MethodOverrideSet
		require.NoError(t, set.Add(MethodOverride{MethodName: "Load", Kind: LookupOverride, BeanName: "loader"}))
		require.NoError(t, set.Add(MethodOverride{MethodName: "Store", Kind: ReplaceOverride}))

		assert.False(t, set.Empty())
		assert.Equal(t, 2, set.Len())

		o, ok := set.Get("Load")
		require.True(t, ok)
		assert.Equal(t, LookupOverride, o.Kind)
		assert.Equal(t, "loader", o.BeanName)

		_, ok = set.Get("Missing")
		assert.False(t, ok)
	})

	t.Run("rejects duplicate method", func(t *testing.T) {
		var set MethodOverrideSet
		require.NoError(t, set.Add(MethodOverride{MethodName: "Load"}))
		err := set.Add(MethodOverride{MethodName: "Load"})
		assert.ErrorIs(t, err, ErrOverrideExists)
	})

	t.Run("rejects missing method name", func(t *testing.T) {
		var set MethodOverrideSet
		assert.Error(t, set.Add(MethodOverride{}))
	})

	t.Run("all returns a copy", func(t *testing.T) {
		var set MethodOverrideSet
		require.NoError(t, set.Add(MethodOverride{MethodName: "Load"}))

		all := set.All()
		all[0].MethodName = "mutated"

		o, ok := set.Get("Load")
		assert.True(t, ok)
		assert.Equal(t, "Load", o.MethodName)
	})
}

func TestOverrideKindString(t *testing.T) {
	assert.Equal(t, "Lookup", LookupOverride.String())
	assert.Equal(t, "Replace", ReplaceOverride.String())
	assert.Equal(t, "Unknown(7)", OverrideKind(7).String())
}

func TestNewBeanDefinitionFor(t *testing.T) {
	t.Run("struct normalizes to pointer", func(t *testing.T) {
		def := NewBeanDefinitionFor[InventoryService]()
		assert.Equal(t, reflect.TypeOf(&InventoryService{}), def.Type)
	})

	t.Run("pointer stays pointer", func(t *testing.T) {
		def := NewBeanDefinitionFor[*InventoryService]()
		assert.Equal(t, reflect.TypeOf(&InventoryService{}), def.Type)
	})

	t.Run("interface stays interface", func(t *testing.T) {
		def := NewBeanDefinitionFor[Notifier]()
		assert.Equal(t, reflect.Interface, def.Type.Kind())
	})

	t.Run("definitions get distinct ids", func(t *testing.T) {
		a := NewBeanDefinitionFor[InventoryService]()
		b := NewBeanDefinitionFor[InventoryService]()
		assert.NotEmpty(t, a.ID())
		assert.NotEqual(t, a.ID(), b.ID())
	})
}

func TestBeanDefinitionValidate(t *testing.T) {
	var nilDef *BeanDefinition
	assert.ErrorIs(t, nilDef.Validate(), ErrDefinitionNil)
	assert.ErrorIs(t, (&BeanDefinition{}).Validate(), ErrTargetTypeNil)
	assert.NoError(t, NewBeanDefinitionFor[InventoryService]().Validate())
}

func TestResolveConstructor_Caching(t *testing.T) {
	t.Run("resolution is cached on the definition", func(t *testing.T) {
		def := NewBeanDefinitionFor[InventoryService]()
		def.Constructor = func() *InventoryService { return &InventoryService{} }

		first, err := def.resolveConstructor("inventory")
		require.NoError(t, err)
		require.NotNil(t, first)

		// Removing the constructor afterwards has no effect: the cached
		// resolution is reused for the definition's lifetime.
		def.Constructor = nil

		second, err := def.resolveConstructor("inventory")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("constructor must produce the target type", func(t *testing.T) {
		def := NewBeanDefinitionFor[InventoryService]()
		def.Constructor = func() string { return "" }

		_, err := def.resolveConstructor("inventory")
		assert.ErrorIs(t, err, ErrNoDefaultConstructor)
	})

	t.Run("constructor taking arguments is not a default constructor", func(t *testing.T) {
		def := NewBeanDefinitionFor[InventoryService]()
		def.Constructor = func(items []string) *InventoryService { return &InventoryService{Items: items} }

		_, err := def.resolveConstructor("inventory")
		assert.ErrorIs(t, err, ErrNoDefaultConstructor)
	})

	t.Run("failed resolution is not cached", func(t *testing.T) {
		def := NewBeanDefinitionFor[InventoryService]()
		def.Constructor = func(items []string) *InventoryService { return nil }

		_, err := def.resolveConstructor("inventory")
		require.Error(t, err)
		assert.Nil(t, def.resolvedConstructor())

		def.Constructor = func() *InventoryService { return &InventoryService{} }
		_, err = def.resolveConstructor("inventory")
		assert.NoError(t, err)
	})
}

func TestResolveConstructor_Concurrent(t *testing.T) {
	const goroutines = 32

	def := NewBeanDefinitionFor[InventoryService]()
	def.Constructor = func() *InventoryService { return &InventoryService{} }

	var wg sync.WaitGroup
	resolved := make([]*reflection.Constructor, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resolved[i], errs[i] = def.resolveConstructor("inventory")
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, resolved[i])
		// Every caller observes the single published resolution.
		assert.Same(t, resolved[0], resolved[i])
	}
	assert.Same(t, resolved[0], def.resolvedConstructor())
}

func TestBeanDefinitionString(t *testing.T) {
	def := NewBeanDefinitionFor[InventoryService]()
	s := def.String()
	assert.Contains(t, s, def.ID())
	assert.Contains(t, s, "InventoryService")
}
