// Package entity defines the serialization capability shared by every typed
// Kubernetes object and converts entities into document trees.
//
// An entity declares its attributes explicitly, in order, through Fields.
// Attribute names are written in snake_case and mapped once to camelCase
// when serialized. Unset attributes are modelled with Option and serialize to
// nothing at all: the key is dropped, never rendered as null.
//
// Entities must form an acyclic graph. Nested entities are held by value and
// never refer back to an ancestor; Serialize enforces a depth bound as a
// guard against violations.
package entity

// Entity is any value that can be serialized into a document mapping.
type Entity interface {
	// Fields returns the declared attributes in declaration order.
	Fields() []Field
}

// Object is a top-level Kubernetes resource: an Entity that also knows the
// kind, apiVersion and name it is deployed under.
type Object interface {
	Entity

	Kind() string
	APIVersion() string
	ObjectName() string
}

// Field is one declared attribute.
type Field struct {
	// Name is the snake_case attribute name.
	Name string
	// Value is the attribute's typed value.
	Value Value
}

// F returns a Field.
func F(name string, v Value) Field {
	return Field{Name: name, Value: v}
}

// Kind reports the field's semantic type. A field without a value is
// omitted.
func (f Field) Kind() Kind {
	if f.Value == nil {
		return KindOmitted
	}

	return f.Value.Kind()
}

// Fields is an Entity built from a literal attribute list. It is useful for
// ad-hoc nested objects that have no dedicated type.
type Fields []Field

// Fields returns the list itself.
func (fs Fields) Fields() []Field {
	return fs
}
