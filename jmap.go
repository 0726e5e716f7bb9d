package jni

import (
	"iter"
)

const (
	mapClass      = "java/util/Map"
	setClass      = "java/util/Set"
	iteratorClass = "java/util/Iterator"
	entryClass    = "java/util/Map$Entry"

	sigObjectToObject = "(Ljava/lang/Object;)Ljava/lang/Object;"
	sigPut            = "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;"
	sigNoArgsObject   = "()Ljava/lang/Object;"
)

// Map is a view of a java/util/Map bound to one Env. The get, put and remove
// method IDs are resolved once when the view is made.
//
// A Map does not own the object it wraps. Release it to drop the class
// reference it holds.
type Map struct {
	env    *Env
	obj    Object
	class  *AutoLocal
	get    MethodID
	put    MethodID
	remove MethodID
}

// NewMap wraps obj, which must implement java/util/Map.
func NewMap(env *Env, obj Object) (*Map, error) {
	if err := env.receiver(obj); err != nil {
		return nil, err
	}
	cls, err := env.FindClass(mapClass)
	if err != nil {
		return nil, err
	}
	m := &Map{env: env, obj: obj, class: env.AutoLocal(cls)}
	desc := ClassOfLocal(m.class)
	if m.get, err = env.GetMethodID(desc, "get", sigObjectToObject); err != nil {
		m.Release()
		return nil, err
	}
	if m.put, err = env.GetMethodID(desc, "put", sigPut); err != nil {
		m.Release()
		return nil, err
	}
	if m.remove, err = env.GetMethodID(desc, "remove", sigObjectToObject); err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

// Object returns the wrapped map.
func (m *Map) Object() Object { return m.obj }

// Release deletes the class reference held by the view.
func (m *Map) Release() { m.class.Release() }

// optional turns a nullable object result into (obj, ok).
func optional(v Value, err error) (Object, bool, error) {
	if err != nil {
		return Object{}, false, err
	}
	obj, err := v.Object()
	if err != nil {
		return Object{}, false, err
	}
	if obj.IsNull() {
		return Object{}, false, nil
	}
	return obj, true, nil
}

// Get returns the value mapped to key; ok is false if there is none.
func (m *Map) Get(key Object) (value Object, ok bool, err error) {
	return optional(m.env.CallMethodUnchecked(m.obj, Method(m.get), KindObject,
		[]Value{ObjectValue(key)}))
}

// Put maps key to value and returns the previous mapping, if any.
func (m *Map) Put(key, value Object) (prev Object, ok bool, err error) {
	return optional(m.env.CallMethodUnchecked(m.obj, Method(m.put), KindObject,
		[]Value{ObjectValue(key), ObjectValue(value)}))
}

// Remove deletes the mapping for key and returns it, if any.
func (m *Map) Remove(key Object) (prev Object, ok bool, err error) {
	return optional(m.env.CallMethodUnchecked(m.obj, Method(m.remove), KindObject,
		[]Value{ObjectValue(key)}))
}

// Iter starts an iteration over the map's entries. The iterator protocol IDs
// are resolved on every call. entrySet and iterator run inside a local frame
// so only the iterator reference survives.
//
// The MapIter must not be used after m is released or its Env closed.
func (m *Map) Iter() (*MapIter, error) {
	e := m.env
	it := &MapIter{m: m}

	iterCls, err := e.LookupClass(ClassName(iteratorClass))
	if err != nil {
		return nil, err
	}
	defer iterCls.Release()
	if it.hasNext, err = e.GetMethodID(ClassOf(iterCls.Object()), "hasNext", "()Z"); err != nil {
		return nil, err
	}
	if it.next, err = e.GetMethodID(ClassOf(iterCls.Object()), "next", sigNoArgsObject); err != nil {
		return nil, err
	}

	entryCls, err := e.LookupClass(ClassName(entryClass))
	if err != nil {
		return nil, err
	}
	defer entryCls.Release()
	if it.getKey, err = e.GetMethodID(ClassOf(entryCls.Object()), "getKey", sigNoArgsObject); err != nil {
		return nil, err
	}
	if it.getValue, err = e.GetMethodID(ClassOf(entryCls.Object()), "getValue", sigNoArgsObject); err != nil {
		return nil, err
	}

	obj, err := e.WithLocalFrame(16, func() (Object, error) {
		set, err := e.CallMethodUnchecked(m.obj,
			MethodByName(ClassOfLocal(m.class), "entrySet", "()Ljava/util/Set;"), KindObject, nil)
		if err != nil {
			return Object{}, err
		}
		setObj, err := set.Object()
		if err != nil {
			return Object{}, err
		}
		iv, err := e.CallMethodUnchecked(setObj,
			MethodByName(ClassName(setClass), "iterator", "()Ljava/util/Iterator;"), KindObject, nil)
		if err != nil {
			return Object{}, err
		}
		return iv.Object()
	})
	if err != nil {
		return nil, err
	}
	if obj.IsNull() {
		return nil, nullArg("Map.entrySet().iterator()")
	}
	it.iter = e.AutoLocal(obj)
	return it, nil
}

// MapIter walks the entries of a Map.
//
// Iteration ends when the entries run out or a call fails. The two cases are
// told apart by Err, which holds the failure. Key and value references are
// owned by the caller.
type MapIter struct {
	m        *Map
	iter     *AutoLocal
	hasNext  MethodID
	next     MethodID
	getKey   MethodID
	getValue MethodID
	done     bool
	err      error
}

// Next returns the next entry, or ok == false once iteration has ended.
func (it *MapIter) Next() (key, value Object, ok bool) {
	if it.done {
		return Object{}, Object{}, false
	}
	key, value, ok, err := it.step()
	if err != nil {
		it.err = err
		it.m.env.logger.Debug("map iteration stopped", "error", err)
	}
	if !ok {
		it.Close()
	}
	return key, value, ok
}

func (it *MapIter) step() (key, value Object, ok bool, err error) {
	e := it.m.env
	cur := it.iter.Object()

	hv, err := e.CallMethodUnchecked(cur, Method(it.hasNext), KindBoolean, nil)
	if err != nil {
		return Object{}, Object{}, false, err
	}
	if has, err := hv.Bool(); err != nil || !has {
		return Object{}, Object{}, false, err
	}

	nv, err := e.CallMethodUnchecked(cur, Method(it.next), KindObject, nil)
	if err != nil {
		return Object{}, Object{}, false, err
	}
	entryObj, err := nv.Object()
	if err != nil {
		return Object{}, Object{}, false, err
	}
	entry := e.AutoLocal(entryObj)
	defer entry.Release()

	kv, err := e.CallMethodUnchecked(entry.Object(), Method(it.getKey), KindObject, nil)
	if err != nil {
		return Object{}, Object{}, false, err
	}
	key, _ = kv.Object()
	vv, err := e.CallMethodUnchecked(entry.Object(), Method(it.getValue), KindObject, nil)
	if err != nil {
		e.AutoLocal(key).Release()
		return Object{}, Object{}, false, err
	}
	value, _ = vv.Object()
	return key, value, true, nil
}

// Err returns the error that ended iteration, or nil if the entries ran out
// or iteration has not ended.
func (it *MapIter) Err() error { return it.err }

// All adapts the iterator for range-over-func:
//
//	for k, v := range it.All() {
//	    ...
//	}
//	if err := it.Err(); err != nil {
//	    ...
//	}
func (it *MapIter) All() iter.Seq2[Object, Object] {
	return func(yield func(Object, Object) bool) {
		for {
			k, v, ok := it.Next()
			if !ok || !yield(k, v) {
				return
			}
		}
	}
}

// Close ends iteration and deletes the iterator reference. It is safe to
// call more than once.
func (it *MapIter) Close() {
	it.done = true
	it.iter.Release()
}
