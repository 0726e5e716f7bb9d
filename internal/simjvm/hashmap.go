package simjvm

import "slices"

const (
	hashMapClass       = "java/util/HashMap"
	entrySetClass      = "java/util/HashMap$EntrySet"
	entryIteratorClass = "java/util/HashMap$EntryIterator"
	nodeClass          = "java/util/HashMap$Node"
)

// hashMap is the storage behind java/util/HashMap. Entries iterate in
// insertion order.
type hashMap struct {
	items    map[any]*mapEntry
	order    []*mapEntry
	modCount int
}

type mapEntry struct {
	key   *Object
	value *Object
}

func newHashMap() *hashMap {
	return &hashMap{items: make(map[any]*mapEntry)}
}

type nullKey struct{}
type stringKey string
type integerKey int32

// keyOf gives strings and integers value equality; everything else compares
// by identity.
func keyOf(o *Object) any {
	if o == nil {
		return nullKey{}
	}
	switch o.class.Name {
	case stringClass:
		return stringKey(o.Data.(string))
	case integerClass:
		return integerKey(o.Field("value").Int())
	}
	return o
}

func (m *hashMap) get(key *Object) (*mapEntry, bool) {
	e, ok := m.items[keyOf(key)]
	return e, ok
}

func (m *hashMap) put(key, value *Object) *Object {
	k := keyOf(key)
	if e, ok := m.items[k]; ok {
		prev := e.value
		e.value = value
		return prev
	}
	e := &mapEntry{key: key, value: value}
	m.items[k] = e
	m.order = append(m.order, e)
	m.modCount++
	return nil
}

func (m *hashMap) remove(key *Object) *Object {
	k := keyOf(key)
	e, ok := m.items[k]
	if !ok {
		return nil
	}
	delete(m.items, k)
	m.order = slices.DeleteFunc(m.order, func(x *mapEntry) bool { return x == e })
	m.modCount++
	return e.value
}

func (m *hashMap) clear() {
	clear(m.items)
	m.order = nil
	m.modCount++
}

func (m *hashMap) trace(mark func(*Object)) {
	for _, e := range m.order {
		e.trace(mark)
	}
}

func (e *mapEntry) trace(mark func(*Object)) {
	mark(e.key)
	mark(e.value)
}

// entrySet and entryIterator keep their map object alive.
type entrySet struct {
	owner *Object
}

func (s *entrySet) trace(mark func(*Object)) { mark(s.owner) }

type entryIterator struct {
	owner    *Object
	pos      int
	modCount int
}

func (it *entryIterator) trace(mark func(*Object)) { mark(it.owner) }

func storage(o *Object) *hashMap { return o.Data.(*hashMap) }

func collectionDefs() []ClassDef {
	const (
		objectSig   = "Ljava/lang/Object;"
		iteratorSig = "()Ljava/util/Iterator;"
	)
	return []ClassDef{
		{
			Name:      "java/lang/Iterable",
			Interface: true,
			Methods:   Methods{"iterator" + iteratorSig: nil},
		},
		{
			Name:       "java/util/Collection",
			Interface:  true,
			Interfaces: []string{"java/lang/Iterable"},
			Methods:    Methods{"size()I": nil, "isEmpty()Z": nil},
		},
		{
			Name:       "java/util/Set",
			Interface:  true,
			Interfaces: []string{"java/util/Collection"},
		},
		{
			Name:      "java/util/Iterator",
			Interface: true,
			Methods:   Methods{"hasNext()Z": nil, "next()" + objectSig: nil},
		},
		{
			Name:      "java/util/Map$Entry",
			Interface: true,
			Methods:   Methods{"getKey()" + objectSig: nil, "getValue()" + objectSig: nil},
		},
		{
			Name:      "java/util/Map",
			Interface: true,
			Methods: Methods{
				"get(" + objectSig + ")" + objectSig:             nil,
				"put(" + objectSig + objectSig + ")" + objectSig: nil,
				"remove(" + objectSig + ")" + objectSig:          nil,
				"containsKey(" + objectSig + ")Z":                nil,
				"size()I":                                        nil,
				"isEmpty()Z":                                     nil,
				"clear()V":                                       nil,
				"entrySet()Ljava/util/Set;":                      nil,
			},
		},
		hashMapDef(),
		{
			Name:       entrySetClass,
			Interfaces: []string{"java/util/Set"},
			Methods: Methods{
				"iterator" + iteratorSig: func(c *Call, this *Object, _ []Value) (Value, error) {
					owner := this.Data.(*entrySet).owner
					it := &entryIterator{owner: owner, modCount: storage(owner).modCount}
					return Obj(c.New(entryIteratorClass, it)), nil
				},
				"size()I": func(_ *Call, this *Object, _ []Value) (Value, error) {
					return Int(int32(len(storage(this.Data.(*entrySet).owner).order))), nil
				},
				"isEmpty()Z": func(_ *Call, this *Object, _ []Value) (Value, error) {
					return Bool(len(storage(this.Data.(*entrySet).owner).order) == 0), nil
				},
			},
		},
		{
			Name:       entryIteratorClass,
			Interfaces: []string{"java/util/Iterator"},
			Methods: Methods{
				"hasNext()Z": func(_ *Call, this *Object, _ []Value) (Value, error) {
					it := this.Data.(*entryIterator)
					return Bool(it.pos < len(storage(it.owner).order)), nil
				},
				"next()" + objectSig: func(c *Call, this *Object, _ []Value) (Value, error) {
					it := this.Data.(*entryIterator)
					m := storage(it.owner)
					if m.modCount != it.modCount {
						return Value{}, &Thrown{Class: concurrentModification}
					}
					if it.pos >= len(m.order) {
						return Value{}, &Thrown{Class: noSuchElementException}
					}
					e := m.order[it.pos]
					it.pos++
					return Obj(c.New(nodeClass, e)), nil
				},
			},
		},
		{
			Name:       nodeClass,
			Interfaces: []string{"java/util/Map$Entry"},
			Methods: Methods{
				"getKey()" + objectSig: func(_ *Call, this *Object, _ []Value) (Value, error) {
					return Obj(this.Data.(*mapEntry).key), nil
				},
				"getValue()" + objectSig: func(_ *Call, this *Object, _ []Value) (Value, error) {
					return Obj(this.Data.(*mapEntry).value), nil
				},
			},
		},
	}
}

func hashMapDef() ClassDef {
	const objectSig = "Ljava/lang/Object;"
	return ClassDef{
		Name:       hashMapClass,
		Interfaces: []string{"java/util/Map"},
		Methods: Methods{
			"<init>()V": func(_ *Call, this *Object, _ []Value) (Value, error) {
				this.Data = newHashMap()
				return Void(), nil
			},
			"get(" + objectSig + ")" + objectSig: func(_ *Call, this *Object, args []Value) (Value, error) {
				if e, ok := storage(this).get(args[0].Obj); ok {
					return Obj(e.value), nil
				}
				return Obj(nil), nil
			},
			"put(" + objectSig + objectSig + ")" + objectSig: func(_ *Call, this *Object, args []Value) (Value, error) {
				return Obj(storage(this).put(args[0].Obj, args[1].Obj)), nil
			},
			"remove(" + objectSig + ")" + objectSig: func(_ *Call, this *Object, args []Value) (Value, error) {
				return Obj(storage(this).remove(args[0].Obj)), nil
			},
			"containsKey(" + objectSig + ")Z": func(_ *Call, this *Object, args []Value) (Value, error) {
				_, ok := storage(this).get(args[0].Obj)
				return Bool(ok), nil
			},
			"size()I": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Int(int32(len(storage(this).order))), nil
			},
			"isEmpty()Z": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Bool(len(storage(this).order) == 0), nil
			},
			"clear()V": func(_ *Call, this *Object, _ []Value) (Value, error) {
				storage(this).clear()
				return Void(), nil
			},
			"entrySet()Ljava/util/Set;": func(c *Call, this *Object, _ []Value) (Value, error) {
				return Obj(c.New(entrySetClass, &entrySet{owner: this})), nil
			},
		},
	}
}
