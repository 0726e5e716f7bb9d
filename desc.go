package jni

// Descriptors let callers name a class, method, field or exception either by
// something already resolved (a reference or an ID) or symbolically (a name,
// or a class plus name and signature). Each descriptor kind is a closed set of
// variants resolved by one Env method:
//
//	ClassDesc      -> Env.LookupClass
//	MethodDesc     -> Env.LookupMethod
//	StaticMethodDesc -> Env.LookupStaticMethod
//	FieldDesc      -> Env.LookupField
//	StaticFieldDesc -> Env.LookupStaticField
//	ExceptionDesc  -> Env.LookupException
//
// Resolving an already resolved descriptor makes no foreign call. Resolving
// a symbolic one makes one lookup per level of the descriptor and returns
// lookup failures unchanged. Nothing is cached.

// Lookup is a resolved class or exception: either a reference the caller
// already held (borrowed) or a fresh local reference owned by the Lookup.
// Release deletes owned references and is a no-op for borrowed ones.
type Lookup struct {
	obj   Object
	owned *AutoLocal
}

func borrowed(obj Object) Lookup { return Lookup{obj: obj} }

func owned(guard *AutoLocal) Lookup { return Lookup{owned: guard} }

// Object returns the resolved reference.
func (l Lookup) Object() Object {
	if l.owned != nil {
		return l.owned.Object()
	}
	return l.obj
}

// Owned reports whether the Lookup created the reference.
func (l Lookup) Owned() bool { return l.owned != nil }

// Release deletes the reference if the Lookup owns it.
func (l Lookup) Release() {
	if l.owned != nil {
		l.owned.Release()
	}
}

// Forget returns the reference, transferring ownership of an owned one to
// the caller.
func (l Lookup) Forget() Object {
	if l.owned != nil {
		return l.owned.Forget()
	}
	return l.obj
}
