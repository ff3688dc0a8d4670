package value

import "strings"

// PropertyDescriptor mirrors the classic descriptor shape: a value plus the
// writable/enumerable/configurable flags spec §3 requires.
type PropertyDescriptor struct {
	Value        Value
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// Object is a shared mutable record of named property descriptors with an
// optional prototype link, consulted by GetProp/SetProp (spec §4.1).
type Object struct {
	Properties   map[string]*PropertyDescriptor
	Prototype    *Object
	TypeName     string
	MagicMethods map[string]Value // __getattr__/__setattr__ etc., never dispatched but carried for equality
}

// Get walks the prototype chain and returns (value, found).
func (o *Object) Get(name string) (Value, bool) {
	for cur := o; cur != nil; cur = cur.Prototype {
		if cur.Properties != nil {
			if d, ok := cur.Properties[name]; ok {
				return d.Value, true
			}
		}
	}
	return Undefined, false
}

// Set writes an own property, respecting Writable on an existing descriptor
// and creating a fresh writable/enumerable/configurable descriptor
// otherwise. Returns false if the property exists and is not writable.
func (o *Object) Set(name string, v Value) bool {
	if o.Properties == nil {
		o.Properties = map[string]*PropertyDescriptor{}
	}
	if d, ok := o.Properties[name]; ok {
		if !d.Writable {
			return false
		}
		d.Value = v
		return true
	}
	o.Properties[name] = &PropertyDescriptor{Value: v, Writable: true, Enumerable: true, Configurable: true}
	return true
}

// Define installs a property descriptor directly (used by the codec, which
// carries explicit flags on the wire).
func (o *Object) Define(name string, d *PropertyDescriptor) {
	if o.Properties == nil {
		o.Properties = map[string]*PropertyDescriptor{}
	}
	o.Properties[name] = d
}

// equal implements Object's structural equality: identical type name, the
// same set of own properties with equal descriptors, prototypes that are in
// turn structurally equal, and the same magic-method table (spec §3).
func (o *Object) equal(other *Object) bool {
	if o == other {
		return true
	}
	if o == nil || other == nil {
		return o == nil && other == nil
	}
	if o.TypeName != other.TypeName {
		return false
	}
	if len(o.Properties) != len(other.Properties) {
		return false
	}
	for name, d := range o.Properties {
		od, ok := other.Properties[name]
		if !ok || !descriptorsEqual(d, od) {
			return false
		}
	}
	if len(o.MagicMethods) != len(other.MagicMethods) {
		return false
	}
	for name, v := range o.MagicMethods {
		ov, ok := other.MagicMethods[name]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return o.Prototype.equal(other.Prototype)
}

func descriptorsEqual(a, b *PropertyDescriptor) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Writable == b.Writable &&
		a.Enumerable == b.Enumerable &&
		a.Configurable == b.Configurable &&
		a.Value.Equal(b.Value)
}

func (o *Object) String() string {
	if o == nil {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for name, d := range o.Properties {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(d.Value.String())
	}
	b.WriteByte('}')
	return b.String()
}
