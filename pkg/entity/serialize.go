package entity

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/dmonroy/avionix/internal/naming"
	"github.com/dmonroy/avionix/pkg/document"
)

// MaxDepth bounds the nesting of objects, sequences and mappings.
const MaxDepth = 100

// Serialize converts e into a document mapping. Attributes appear in
// declaration order with camelCase keys; omitted attributes contribute no
// key. An entity whose attributes are all omitted yields an empty mapping.
//
// Every call builds its own tree, so concurrent calls on independent
// entities need no coordination.
func Serialize(e Entity) (*document.Mapping, error) {
	return serializeEntity(e, "", 0)
}

// SerializeValue converts a single value. The boolean result is false when
// the value is omitted, in which case the caller must drop the enclosing key.
func SerializeValue(v Value) (document.Node, bool, error) {
	return serializeValue(v, "", 0)
}

// IsNil reports whether e is nil or a nil pointer. Either has no fields to
// serialize.
func IsNil(e Entity) bool {
	if e == nil {
		return true
	}

	v := reflect.ValueOf(e)

	return v.Kind() == reflect.Pointer && v.IsNil()
}

func serializeEntity(e Entity, path string, depth int) (*document.Mapping, error) {
	if IsNil(e) {
		return nil, &SerializationError{Path: path, Err: ErrNilEntity}
	}

	if depth > MaxDepth {
		return nil, &SerializationError{Path: path, Err: ErrMaxDepth}
	}

	out := document.NewMapping()

	for _, f := range e.Fields() {
		key := naming.ToCamel(f.Name)

		n, present, err := serializeValue(f.Value, join(path, key), depth+1)
		if err != nil {
			return nil, err
		}

		if present {
			out.Set(key, n)
		}
	}

	return out, nil
}

func serializeValue(v Value, path string, depth int) (document.Node, bool, error) {
	if depth > MaxDepth {
		return nil, false, &SerializationError{Path: path, Err: ErrMaxDepth}
	}

	switch val := v.(type) {
	case nil, omittedValue:
		return nil, false, nil
	case stringValue:
		return document.String(string(val)), true, nil
	case intValue:
		return document.Int(int64(val)), true, nil
	case floatValue:
		return document.Float(float64(val)), true, nil
	case boolValue:
		return document.Bool(bool(val)), true, nil
	case objectValue:
		m, err := serializeEntity(val.entity, path, depth)
		if err != nil {
			return nil, false, err
		}

		return m, true, nil
	case sequenceValue:
		seq := document.NewSequence()

		for i, item := range val.items {
			itemPath := path + "[" + strconv.Itoa(i) + "]"

			n, present, err := serializeValue(item, itemPath, depth+1)
			if err != nil {
				return nil, false, err
			}

			// Sequence elements cannot be omitted.
			if !present {
				return nil, false, &SerializationError{
					Path: itemPath,
					Err:  fmt.Errorf("%w: omitted sequence element", ErrUnsupportedValue),
				}
			}

			seq.Append(n)
		}

		return seq, true, nil
	case mappingValue:
		m := document.NewMapping()

		for _, p := range val.pairs {
			n, present, err := serializeValue(p.Value, join(path, p.Key), depth+1)
			if err != nil {
				return nil, false, err
			}

			if present {
				m.Set(p.Key, n)
			}
		}

		return m, true, nil
	default:
		return nil, false, &SerializationError{
			Path: path,
			Err:  fmt.Errorf("%w: %T", ErrUnsupportedValue, v),
		}
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}

	return path + "." + key
}
