package value

import "testing"

func TestObjectGetWalksPrototypeChain(t *testing.T) {
	proto := &Object{Properties: map[string]*PropertyDescriptor{}}
	proto.Set("greeting", String("hi"))

	child := &Object{Properties: map[string]*PropertyDescriptor{}, Prototype: proto}

	v, ok := child.Get("greeting")
	if !ok || v.AsText() != "hi" {
		t.Fatalf("Get(greeting) = (%v, %v), want (hi, true) via prototype", v, ok)
	}
}

func TestObjectOwnPropertyShadowsPrototype(t *testing.T) {
	proto := &Object{Properties: map[string]*PropertyDescriptor{}}
	proto.Set("x", Number(1))

	child := &Object{Properties: map[string]*PropertyDescriptor{}, Prototype: proto}
	child.Set("x", Number(2))

	v, _ := child.Get("x")
	if v.AsNumber() != 2 {
		t.Errorf("own property must shadow prototype property, got %v", v)
	}
	protoVal, _ := proto.Get("x")
	if protoVal.AsNumber() != 1 {
		t.Error("setting an own property must not mutate the prototype's value")
	}
}

func TestObjectGetMissingReturnsUndefined(t *testing.T) {
	o := &Object{Properties: map[string]*PropertyDescriptor{}}
	v, ok := o.Get("nope")
	if ok || v.Kind != KindUndefined {
		t.Errorf("Get on a missing property = (%v, %v), want (Undefined, false)", v, ok)
	}
}

func TestObjectSetRespectsNonWritable(t *testing.T) {
	o := &Object{Properties: map[string]*PropertyDescriptor{}}
	o.Define("frozen", &PropertyDescriptor{Value: Number(1), Writable: false})

	if ok := o.Set("frozen", Number(2)); ok {
		t.Error("Set against a non-writable descriptor must report false")
	}
	v, _ := o.Get("frozen")
	if v.AsNumber() != 1 {
		t.Error("a non-writable property must keep its original value")
	}
}
