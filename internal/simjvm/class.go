package simjvm

import (
	"fmt"
	"strings"

	"github.com/feather-lang/jni/sys"
)

// MethodFunc implements a method. this is the receiver, or the class object
// for static methods. Returning an error throws it: a *Thrown names the
// exception class, any other error becomes a java/lang/RuntimeException.
type MethodFunc func(c *Call, this *Object, args []Value) (Value, error)

// Methods maps "name(args)ret" to an implementation. A nil implementation
// declares an abstract method.
type Methods map[string]MethodFunc

// StaticField declares a static field and its initial value.
type StaticField struct {
	Sig   string
	Value Value
}

// ClassDef defines a class. Use DefineClass to register it with a VM.
type ClassDef struct {
	// Name is the slash-separated binary name.
	Name string

	// Super defaults to java/lang/Object. Interfaces have no superclass.
	Super string

	Interfaces []string

	Interface bool

	Methods       Methods
	StaticMethods Methods

	// Fields maps instance field names to type descriptors.
	Fields       map[string]string
	StaticFields map[string]StaticField
}

// Class is a loaded class.
type Class struct {
	Name       string
	Super      *Class
	Interfaces []*Class
	Interface  bool

	object  *Object
	methods map[string]*method
	statics map[string]*method
	fields  map[string]*field
	sfields map[string]*field
}

type method struct {
	id     sys.Jmethod
	class  *Class
	name   string
	sig    string
	params []sys.Kind
	ret    sys.Kind
	static bool
	fn     MethodFunc
}

func (m *method) key() string { return m.name + m.sig }

type field struct {
	id     sys.Jfield
	class  *Class
	name   string
	sig    string
	kind   sys.Kind
	static bool
	value  Value // static fields only
}

// DefineClass registers a class with the VM. Every class it names must be
// defined already.
func (vm *VM) DefineClass(def ClassDef) (*Class, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.defineClass(def)
}

func (vm *VM) defineClass(def ClassDef) (*Class, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("DefineClass: name is required")
	}
	if _, exists := vm.classes[def.Name]; exists {
		return nil, fmt.Errorf("DefineClass: class %s already defined", def.Name)
	}

	cls := &Class{
		Name:      def.Name,
		Interface: def.Interface,
		methods:   make(map[string]*method),
		statics:   make(map[string]*method),
		fields:    make(map[string]*field),
		sfields:   make(map[string]*field),
	}

	super := def.Super
	if super == "" && !def.Interface && def.Name != objectClass {
		super = objectClass
	}
	if super != "" {
		s, ok := vm.classes[super]
		if !ok {
			return nil, fmt.Errorf("DefineClass %s: unknown superclass %s", def.Name, super)
		}
		cls.Super = s
	}
	for _, name := range def.Interfaces {
		iface, ok := vm.classes[name]
		if !ok || !iface.Interface {
			return nil, fmt.Errorf("DefineClass %s: unknown interface %s", def.Name, name)
		}
		cls.Interfaces = append(cls.Interfaces, iface)
	}

	for key, fn := range def.Methods {
		m, err := vm.newMethod(cls, key, fn, false)
		if err != nil {
			return nil, err
		}
		cls.methods[key] = m
	}
	for key, fn := range def.StaticMethods {
		m, err := vm.newMethod(cls, key, fn, true)
		if err != nil {
			return nil, err
		}
		cls.statics[key] = m
	}
	for name, sig := range def.Fields {
		f, err := vm.newField(cls, name, sig, false)
		if err != nil {
			return nil, err
		}
		cls.fields[name] = f
	}
	for name, sf := range def.StaticFields {
		f, err := vm.newField(cls, name, sf.Sig, true)
		if err != nil {
			return nil, err
		}
		f.value = sf.Value
		cls.sfields[name] = f
	}

	vm.classes[def.Name] = cls
	if c, ok := vm.classes[classClass]; ok {
		cls.object = vm.alloc(c, cls)
	}
	vm.logger.Debug("defined class", "name", def.Name)
	return cls, nil
}

func (vm *VM) newMethod(cls *Class, key string, fn MethodFunc, static bool) (*method, error) {
	i := strings.IndexByte(key, '(')
	if i <= 0 {
		return nil, fmt.Errorf("DefineClass %s: method %q has no signature", cls.Name, key)
	}
	params, ret, err := parseMethodSig(key[i:])
	if err != nil {
		return nil, fmt.Errorf("DefineClass %s: method %q: %w", cls.Name, key, err)
	}
	m := &method{
		id:     sys.Jmethod(len(vm.methods) + 1),
		class:  cls,
		name:   key[:i],
		sig:    key[i:],
		params: params,
		ret:    ret,
		static: static,
		fn:     fn,
	}
	vm.methods = append(vm.methods, m)
	return m, nil
}

func (vm *VM) newField(cls *Class, name, sig string, static bool) (*field, error) {
	kind, n, err := parseFieldSig(sig, 0)
	if err != nil || n != len(sig) || kind == sys.Void {
		return nil, fmt.Errorf("DefineClass %s: field %s has bad type %q", cls.Name, name, sig)
	}
	f := &field{
		id:     sys.Jfield(len(vm.fields) + 1),
		class:  cls,
		name:   name,
		sig:    sig,
		kind:   kind,
		static: static,
	}
	vm.fields = append(vm.fields, f)
	return f, nil
}

// Object returns the class's java/lang/Class instance.
func (c *Class) Object() *Object { return c.object }

// DottedName returns the name as java.lang.Class#getName reports it.
func (c *Class) DottedName() string { return strings.ReplaceAll(c.Name, "/", ".") }

// AssignableTo reports whether instances of c are instances of t.
func (c *Class) AssignableTo(t *Class) bool {
	for k := c; k != nil; k = k.Super {
		if k == t {
			return true
		}
		for _, iface := range k.Interfaces {
			if iface.AssignableTo(t) {
				return true
			}
		}
	}
	return false
}

// findMethod resolves an instance method declared on c, its superclasses or
// its interfaces, as GetMethodID does. Constructors are never inherited.
func (c *Class) findMethod(key string) *method {
	if strings.HasPrefix(key, "<init>") {
		return c.methods[key]
	}
	for k := c; k != nil; k = k.Super {
		if m, ok := k.methods[key]; ok {
			return m
		}
		for _, iface := range k.Interfaces {
			if m := iface.findMethod(key); m != nil {
				return m
			}
		}
	}
	return nil
}

// dispatch selects the implementation that runs for key on an instance of c.
func (c *Class) dispatch(key string) *method {
	for k := c; k != nil; k = k.Super {
		if m, ok := k.methods[key]; ok && m.fn != nil {
			return m
		}
	}
	return nil
}

func (c *Class) findStatic(key string) *method {
	for k := c; k != nil; k = k.Super {
		if m, ok := k.statics[key]; ok {
			return m
		}
	}
	return nil
}

func (c *Class) findField(name string, static bool) *field {
	for k := c; k != nil; k = k.Super {
		fields := k.fields
		if static {
			fields = k.sfields
		}
		if f, ok := fields[name]; ok {
			return f
		}
	}
	return nil
}

// parseMethodSig returns the parameter and return kinds of a method
// descriptor.
func parseMethodSig(sig string) ([]sys.Kind, sys.Kind, error) {
	if len(sig) == 0 || sig[0] != '(' {
		return nil, 0, fmt.Errorf("bad method descriptor %q", sig)
	}
	var params []sys.Kind
	pos := 1
	for pos < len(sig) && sig[pos] != ')' {
		k, next, err := parseFieldSig(sig, pos)
		if err != nil {
			return nil, 0, err
		}
		if k == sys.Void {
			return nil, 0, fmt.Errorf("void parameter in %q", sig)
		}
		params = append(params, k)
		pos = next
	}
	if pos >= len(sig) {
		return nil, 0, fmt.Errorf("unterminated parameters in %q", sig)
	}
	ret, next, err := parseFieldSig(sig, pos+1)
	if err != nil {
		return nil, 0, err
	}
	if next != len(sig) {
		return nil, 0, fmt.Errorf("trailing characters in %q", sig)
	}
	return params, ret, nil
}

// parseFieldSig parses one type starting at pos and returns its kind and the
// offset after it. Arrays are objects.
func parseFieldSig(sig string, pos int) (sys.Kind, int, error) {
	if pos >= len(sig) {
		return 0, pos, fmt.Errorf("truncated descriptor %q", sig)
	}
	switch sig[pos] {
	case 'V':
		return sys.Void, pos + 1, nil
	case 'Z':
		return sys.Boolean, pos + 1, nil
	case 'B':
		return sys.Byte, pos + 1, nil
	case 'C':
		return sys.Char, pos + 1, nil
	case 'S':
		return sys.Short, pos + 1, nil
	case 'I':
		return sys.Int, pos + 1, nil
	case 'J':
		return sys.Long, pos + 1, nil
	case 'F':
		return sys.Float, pos + 1, nil
	case 'D':
		return sys.Double, pos + 1, nil
	case 'L':
		end := strings.IndexByte(sig[pos:], ';')
		if end < 2 {
			return 0, pos, fmt.Errorf("bad class type in %q", sig)
		}
		return sys.Object, pos + end + 1, nil
	case '[':
		k, next, err := parseFieldSig(sig, pos+1)
		if err != nil {
			return 0, pos, err
		}
		if k == sys.Void {
			return 0, pos, fmt.Errorf("void array in %q", sig)
		}
		return sys.Object, next, nil
	}
	return 0, pos, fmt.Errorf("bad type %q in %q", sig[pos], sig)
}
