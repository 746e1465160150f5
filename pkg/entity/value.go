package entity

import (
	"sort"
	"time"
)

// Kind is the semantic type of an attribute value.
type Kind int

const (
	// KindOmitted marks an unset attribute. It never reaches the output.
	KindOmitted Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindObject
	KindSequence
	KindMapping
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindOmitted:
		return "omitted"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is the declared value of one attribute. The set of implementations
// is closed; build values with the constructors in this package.
type Value interface {
	Kind() Kind
	sealed()
}

type omittedValue struct{}

type stringValue string

type intValue int64

type floatValue float64

type boolValue bool

type objectValue struct {
	entity Entity
}

type sequenceValue struct {
	items []Value
}

type mappingValue struct {
	pairs []Pair
}

func (omittedValue) Kind() Kind  { return KindOmitted }
func (stringValue) Kind() Kind   { return KindString }
func (intValue) Kind() Kind      { return KindInt }
func (floatValue) Kind() Kind    { return KindFloat }
func (boolValue) Kind() Kind     { return KindBool }
func (objectValue) Kind() Kind   { return KindObject }
func (sequenceValue) Kind() Kind { return KindSequence }
func (mappingValue) Kind() Kind  { return KindMapping }

func (omittedValue) sealed()  {}
func (stringValue) sealed()   {}
func (intValue) sealed()      {}
func (floatValue) sealed()    {}
func (boolValue) sealed()     {}
func (objectValue) sealed()   {}
func (sequenceValue) sealed() {}
func (mappingValue) sealed()  {}

// Pair is one key/value entry of an ordered mapping value.
type Pair struct {
	Key   string
	Value Value
}

// KV returns a Pair.
func KV(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32
}

// Omitted returns the value of an unset attribute.
func Omitted() Value { return omittedValue{} }

// String returns a string value.
func String(s string) Value { return stringValue(s) }

// Int returns an integer value.
func Int[T integer](i T) Value { return intValue(int64(i)) }

// Float returns a floating point value.
func Float(f float64) Value { return floatValue(f) }

// Bool returns a boolean value.
func Bool(b bool) Value { return boolValue(b) }

// Time returns t as an RFC 3339 string in UTC, the form Kubernetes uses for
// timestamps.
func Time(t time.Time) Value { return stringValue(t.UTC().Format(time.RFC3339)) }

// Nested returns a nested entity value. A nil entity, including a typed nil
// pointer, is a serialization error; use OptObject for attributes that may be
// absent.
func Nested(e Entity) Value { return objectValue{entity: e} }

// Seq returns a sequence of values in the given order.
func Seq(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}

	return sequenceValue{items: items}
}

// Objects returns a sequence of nested entities in slice order.
func Objects[E Entity](es []E) Value {
	items := make([]Value, len(es))
	for i, e := range es {
		items[i] = Nested(e)
	}

	return sequenceValue{items: items}
}

// Strings returns a sequence of strings in slice order.
func Strings(ss []string) Value {
	items := make([]Value, len(ss))
	for i, s := range ss {
		items[i] = String(s)
	}

	return sequenceValue{items: items}
}

// Ints returns a sequence of integers in slice order.
func Ints[T integer](is []T) Value {
	items := make([]Value, len(is))
	for i, v := range is {
		items[i] = Int(v)
	}

	return sequenceValue{items: items}
}

// Map returns an ordered mapping value. Pairs are emitted in argument order.
func Map(pairs ...Pair) Value {
	if pairs == nil {
		pairs = []Pair{}
	}

	return mappingValue{pairs: pairs}
}

// StringMap returns a mapping of string values. Go maps carry no insertion
// order, so keys are emitted in sorted order.
func StringMap(m map[string]string) Value {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	pairs := make([]Pair, len(keys))
	for i, k := range keys {
		pairs[i] = Pair{Key: k, Value: String(m[k])}
	}

	return mappingValue{pairs: pairs}
}

// Opt maps a set Option through to and returns Omitted for an unset one.
func Opt[T any](o Option[T], to func(T) Value) Value {
	v, ok := o.Get()
	if !ok {
		return Omitted()
	}

	return to(v)
}

// OptString returns the string held by o, or Omitted.
func OptString(o Option[string]) Value { return Opt(o, String) }

// OptInt returns the integer held by o, or Omitted.
func OptInt[T integer](o Option[T]) Value { return Opt(o, Int[T]) }

// OptFloat returns the float held by o, or Omitted.
func OptFloat(o Option[float64]) Value { return Opt(o, Float) }

// OptBool returns the boolean held by o, or Omitted.
func OptBool(o Option[bool]) Value { return Opt(o, Bool) }

// OptTime returns the timestamp held by o, or Omitted.
func OptTime(o Option[time.Time]) Value { return Opt(o, Time) }

// OptObject returns the entity held by o, or Omitted.
func OptObject[E Entity](o Option[E]) Value {
	return Opt(o, func(e E) Value { return Nested(e) })
}

// OptObjects returns the entity list held by o, or Omitted.
func OptObjects[E Entity](o Option[[]E]) Value { return Opt(o, Objects[E]) }

// OptStrings returns the string list held by o, or Omitted.
func OptStrings(o Option[[]string]) Value { return Opt(o, Strings) }

// OptStringMap returns the string map held by o, or Omitted.
func OptStringMap(o Option[map[string]string]) Value { return Opt(o, StringMap) }
