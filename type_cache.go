package beandi

import (
	"reflect"
	"sync"
)

// typeCache is a thread-safe cache of reflection facts about target types.
// Definition validation, constructor resolution and proxy selection all ask
// the same handful of questions about the same types over and over; caching
// the answers keeps repeated instantiation cheap.
type typeCache struct {
	cache sync.Map // map[reflect.Type]*typeInfo
}

// typeInfo holds pre-computed reflection information about a type.
type typeInfo struct {
	Type reflect.Type
	Kind reflect.Kind

	IsInterface bool
	IsPointer   bool
	IsStruct    bool
	IsFunc      bool
	CanBeNil    bool

	// ElemType is the pointed-to type for pointer kinds.
	ElemType reflect.Type

	// NumMethod is the method count of the type's method set. A zero-method
	// interface is a marker interface for proxy-selection purposes.
	NumMethod int

	// Instantiable reports whether a zero value of the type can be produced
	// directly: structs and pointers to structs qualify, interfaces never do.
	Instantiable bool
}

// globalTypeCache is the singleton cache used throughout the library.
var globalTypeCache = &typeCache{}

// getTypeInfo returns cached type information, computing it on first use.
func (tc *typeCache) getTypeInfo(t reflect.Type) *typeInfo {
	if t == nil {
		return nil
	}

	if cached, ok := tc.cache.Load(t); ok {
		return cached.(*typeInfo)
	}

	info := tc.createTypeInfo(t)

	// LoadOrStore handles the race where another goroutine computed it first.
	actual, _ := tc.cache.LoadOrStore(t, info)
	return actual.(*typeInfo)
}

func (tc *typeCache) createTypeInfo(t reflect.Type) *typeInfo {
	info := &typeInfo{
		Type:      t,
		Kind:      t.Kind(),
		NumMethod: t.NumMethod(),
	}

	info.IsInterface = info.Kind == reflect.Interface
	info.IsPointer = info.Kind == reflect.Pointer
	info.IsStruct = info.Kind == reflect.Struct
	info.IsFunc = info.Kind == reflect.Func

	switch info.Kind {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		info.CanBeNil = true
	}

	if info.IsPointer {
		info.ElemType = t.Elem()
	}

	switch {
	case info.IsStruct:
		info.Instantiable = true
	case info.IsPointer && info.ElemType.Kind() == reflect.Struct:
		info.Instantiable = true
	}

	return info
}

// clearTypeCache clears the global type cache. Useful for testing.
func clearTypeCache() {
	globalTypeCache.cache.Range(func(key, value any) bool {
		globalTypeCache.cache.Delete(key)
		return true
	})
}
