package reflection

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gadget struct {
	Size int
}

func newGadget() *gadget {
	return &gadget{Size: 1}
}

func newGadgetErr() (*gadget, error) {
	return nil, errors.New("out of parts")
}

type workshop struct{}

func (w *workshop) Build(size int) *gadget { return &gadget{Size: size} }

func (w *workshop) assemble() *gadget { return &gadget{} }

func TestAnalyzeConstructor(t *testing.T) {
	t.Run("single return", func(t *testing.T) {
		c, err := AnalyzeConstructor(newGadget, 0)
		require.NoError(t, err)
		assert.Equal(t, reflect.TypeOf(&gadget{}), c.Produces)
		assert.False(t, c.HasErrorReturn)
	})

	t.Run("value and error return", func(t *testing.T) {
		c, err := AnalyzeConstructor(newGadgetErr, 0)
		require.NoError(t, err)
		assert.True(t, c.HasErrorReturn)
	})

	t.Run("arity enforced when requested", func(t *testing.T) {
		_, err := AnalyzeConstructor(func(n int) *gadget { return nil }, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "want 0")
	})

	t.Run("arity ignored with negative wantIn", func(t *testing.T) {
		_, err := AnalyzeConstructor(func(n int) *gadget { return nil }, -1)
		assert.NoError(t, err)
	})

	t.Run("rejects non-functions", func(t *testing.T) {
		_, err := AnalyzeConstructor(42, 0)
		assert.Error(t, err)
	})

	t.Run("rejects nil", func(t *testing.T) {
		_, err := AnalyzeConstructor(nil, 0)
		assert.Error(t, err)
	})

	t.Run("rejects nil function value", func(t *testing.T) {
		var fn func() *gadget
		_, err := AnalyzeConstructor(fn, 0)
		assert.Error(t, err)
	})

	t.Run("rejects error-only return", func(t *testing.T) {
		_, err := AnalyzeConstructor(func() error { return nil }, 0)
		assert.Error(t, err)
	})

	t.Run("rejects wrong second return", func(t *testing.T) {
		_, err := AnalyzeConstructor(func() (*gadget, string) { return nil, "" }, 0)
		assert.Error(t, err)
	})

	t.Run("rejects too many returns", func(t *testing.T) {
		_, err := AnalyzeConstructor(func() (*gadget, *gadget, error) { return nil, nil, nil }, 0)
		assert.Error(t, err)
	})
}

func TestConstructorCall(t *testing.T) {
	t.Run("invokes function", func(t *testing.T) {
		c, err := AnalyzeConstructor(newGadget, 0)
		require.NoError(t, err)

		out, err := c.Call(nil)
		require.NoError(t, err)
		assert.Equal(t, 1, out.(*gadget).Size)
	})

	t.Run("error return is passed through", func(t *testing.T) {
		c, err := AnalyzeConstructor(newGadgetErr, 0)
		require.NoError(t, err)

		_, err = c.Call(nil)
		require.Error(t, err)
		assert.EqualError(t, err, "out of parts")
	})

	t.Run("panic is contained", func(t *testing.T) {
		c, err := AnalyzeConstructor(func() *gadget { panic("broken mold") }, 0)
		require.NoError(t, err)

		_, err = c.Call(nil)
		require.Error(t, err)

		var pe *PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "broken mold", pe.Value)
		assert.NotEmpty(t, pe.Stack)
		assert.Contains(t, pe.Error(), "panicked")
	})

	t.Run("zero constructor produces fresh pointers", func(t *testing.T) {
		c := ZeroConstructor(reflect.TypeOf(&gadget{}))

		first, err := c.Call(nil)
		require.NoError(t, err)
		second, err := c.Call(nil)
		require.NoError(t, err)

		assert.IsType(t, &gadget{}, first)
		assert.NotSame(t, first, second)
	})

	t.Run("zero constructor for value type", func(t *testing.T) {
		c := ZeroConstructor(reflect.TypeOf(gadget{}))

		out, err := c.Call(nil)
		require.NoError(t, err)
		assert.Equal(t, gadget{}, out)
	})
}

func TestBuildArgs(t *testing.T) {
	fn := func(name string, count int) {}
	fnType := reflect.TypeOf(fn)

	t.Run("matching arguments", func(t *testing.T) {
		values, err := BuildArgs(fnType, []any{"a", 2})
		require.NoError(t, err)
		require.Len(t, values, 2)
		assert.Equal(t, "a", values[0].String())
	})

	t.Run("arity mismatch", func(t *testing.T) {
		_, err := BuildArgs(fnType, []any{"a"})
		assert.Error(t, err)
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := BuildArgs(fnType, []any{"a", "b"})
		assert.Error(t, err)
	})

	t.Run("nil for nilable parameter", func(t *testing.T) {
		ptrFn := reflect.TypeOf(func(g *gadget) {})
		values, err := BuildArgs(ptrFn, []any{nil})
		require.NoError(t, err)
		assert.True(t, values[0].IsNil())
	})

	t.Run("nil for value parameter", func(t *testing.T) {
		_, err := BuildArgs(fnType, []any{nil, 2})
		assert.Error(t, err)
	})

	t.Run("variadic", func(t *testing.T) {
		varFn := reflect.TypeOf(func(prefix string, rest ...int) {})

		values, err := BuildArgs(varFn, []any{"p", 1, 2, 3})
		require.NoError(t, err)
		assert.Len(t, values, 4)

		values, err = BuildArgs(varFn, []any{"p"})
		require.NoError(t, err)
		assert.Len(t, values, 1)

		_, err = BuildArgs(varFn, []any{})
		assert.Error(t, err)
	})
}

func TestLookupMethod(t *testing.T) {
	w := &workshop{}

	t.Run("exported method", func(t *testing.T) {
		m, found, err := LookupMethod(w, "Build")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Build", m.Name)
	})

	t.Run("missing method", func(t *testing.T) {
		_, found, err := LookupMethod(w, "Demolish")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("unexported method", func(t *testing.T) {
		_, found, err := LookupMethod(w, "assemble")
		require.Error(t, err)
		assert.True(t, found)
	})

	t.Run("nil receiver", func(t *testing.T) {
		_, found, err := LookupMethod(nil, "Build")
		require.Error(t, err)
		assert.False(t, found)
	})

	t.Run("empty name", func(t *testing.T) {
		_, _, err := LookupMethod(w, "")
		assert.Error(t, err)
	})
}

func TestMethodInvoke(t *testing.T) {
	w := &workshop{}
	m, found, err := LookupMethod(w, "Build")
	require.NoError(t, err)
	require.True(t, found)

	values, err := BuildArgs(m.Type, []any{5})
	require.NoError(t, err)

	results, err := m.Invoke(values)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 5, results[0].Interface().(*gadget).Size)
}

func TestIsExportedName(t *testing.T) {
	assert.True(t, IsExportedName("Build"))
	assert.False(t, IsExportedName("build"))
	assert.False(t, IsExportedName(""))
}
