package jni

import (
	"fmt"
	"strings"
)

// JavaType is a parsed field or return type descriptor.
type JavaType struct {
	// Kind is the element kind; for arrays the value itself is an object.
	Kind Kind
	// Class is the slash-separated class name for object element kinds.
	Class string
	// Dims is the array depth, zero for non-arrays.
	Dims int
}

// ValueKind returns the kind of a value of this type.
func (t JavaType) ValueKind() Kind {
	if t.Dims > 0 {
		return KindObject
	}
	return t.Kind
}

func (t JavaType) String() string {
	var b strings.Builder
	for range t.Dims {
		b.WriteByte('[')
	}
	if t.Kind == KindObject {
		b.WriteByte('L')
		b.WriteString(t.Class)
		b.WriteByte(';')
	} else {
		b.WriteByte(t.Kind.Descriptor())
	}
	return b.String()
}

// MethodSignature is a parsed method descriptor such as
// "(ILjava/lang/String;)V".
type MethodSignature struct {
	Args []JavaType
	Ret  JavaType
}

func (s MethodSignature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, a := range s.Args {
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	b.WriteString(s.Ret.String())
	return b.String()
}

// ParseType parses a field descriptor. Void is rejected.
func ParseType(desc string) (JavaType, error) {
	p := sigParser{src: desc}
	t, err := p.parseType(false)
	if err != nil {
		return JavaType{}, err
	}
	if p.pos != len(desc) {
		return JavaType{}, p.fail("trailing characters")
	}
	return t, nil
}

// ParseMethodSignature parses a method descriptor.
func ParseMethodSignature(desc string) (MethodSignature, error) {
	p := sigParser{src: desc}
	if !p.eat('(') {
		return MethodSignature{}, p.fail("expected '('")
	}
	var sig MethodSignature
	for !p.eat(')') {
		if p.pos >= len(desc) {
			return MethodSignature{}, p.fail("unterminated argument list")
		}
		t, err := p.parseType(false)
		if err != nil {
			return MethodSignature{}, err
		}
		sig.Args = append(sig.Args, t)
	}
	ret, err := p.parseType(true)
	if err != nil {
		return MethodSignature{}, err
	}
	if p.pos != len(desc) {
		return MethodSignature{}, p.fail("trailing characters")
	}
	sig.Ret = ret
	return sig, nil
}

// CheckArgs reports whether args match the parameter kinds.
func (s MethodSignature) CheckArgs(args []Value) error {
	if len(args) != len(s.Args) {
		return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidArguments, s, len(s.Args), len(args))
	}
	for i, a := range args {
		want := s.Args[i].ValueKind()
		if a.Kind() != want {
			return fmt.Errorf("%w: argument %d: %w", ErrInvalidArguments, i,
				&WrongValueTypeError{Expected: want.String(), Actual: a.TypeName()})
		}
	}
	return nil
}

type sigParser struct {
	src string
	pos int
}

func (p *sigParser) fail(reason string) error {
	return &SignatureError{Signature: p.src, Offset: p.pos, Reason: reason}
}

func (p *sigParser) eat(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *sigParser) parseType(allowVoid bool) (JavaType, error) {
	var t JavaType
	for p.eat('[') {
		t.Dims++
	}
	if p.pos >= len(p.src) {
		return JavaType{}, p.fail("unexpected end")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'Z':
		t.Kind = KindBoolean
	case 'B':
		t.Kind = KindByte
	case 'C':
		t.Kind = KindChar
	case 'S':
		t.Kind = KindShort
	case 'I':
		t.Kind = KindInt
	case 'J':
		t.Kind = KindLong
	case 'F':
		t.Kind = KindFloat
	case 'D':
		t.Kind = KindDouble
	case 'V':
		if !allowVoid || t.Dims > 0 {
			p.pos--
			return JavaType{}, p.fail("void not allowed here")
		}
		t.Kind = KindVoid
	case 'L':
		end := strings.IndexByte(p.src[p.pos:], ';')
		if end <= 0 {
			return JavaType{}, p.fail("unterminated class name")
		}
		t.Kind = KindObject
		t.Class = p.src[p.pos : p.pos+end]
		p.pos += end + 1
	default:
		p.pos--
		return JavaType{}, p.fail(fmt.Sprintf("unknown type %q", c))
	}
	return t, nil
}
