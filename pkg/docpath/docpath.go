// Package docpath evaluates the subset of the MongoDB query and update
// language the work order store speaks, against documents held in process.
//
// Documents are normalized BSON: nested documents are map[string]any, arrays
// are []any and scalars keep the type the BSON decoder gives them. Filters
// support dotted-path equality with implicit array traversal. Updates support
// $set and $push with the `$`, `$[]` and `$[identifier]` positional operators.
package docpath

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

type Document = map[string]any

// Positions maps an array path (dotted, without positional segments) to the
// index of the first element that satisfied the filter. It backs the `$` operator.
type Positions map[string]int

// FromValue encodes v as BSON and decodes it back into a Document.
func FromValue(v any) (Document, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docpath: encode: %w", err)
	}
	return FromBytes(data)
}

func FromBytes(data []byte) (Document, error) {
	var d bson.D
	if err := bson.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("docpath: decode: %w", err)
	}
	return Plain(d).(map[string]any), nil
}

func Bytes(doc Document) ([]byte, error) {
	return bson.Marshal(doc)
}

// Decode fills out from doc using the bson struct tags of out.
func Decode(doc Document, out any) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docpath: encode: %w", err)
	}
	return bson.Unmarshal(data, out)
}

// DecodeAll replaces the slice out points to with docs decoded in order.
func DecodeAll(docs []Document, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("docpath: out must be a pointer to a slice, got %T", out)
	}
	slice := rv.Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(docs))
	for _, doc := range docs {
		item := reflect.New(slice.Type().Elem())
		if err := Decode(doc, item.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, item.Elem())
	}
	slice.Set(result)
	return nil
}

// Clone returns a deep copy of doc.
func Clone(doc Document) Document {
	return Plain(doc).(map[string]any)
}

// Plain converts the driver's document and array types into plain maps and
// slices, copying as it goes.
func Plain(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = Plain(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = Plain(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = Plain(e)
		}
		return m
	case bson.A:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = Plain(e)
		}
		return s
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = Plain(e)
		}
		return s
	default:
		return v
	}
}

// value puts an arbitrary Go value through the same BSON round trip stored
// documents went through, so equality checks compare like with like.
func value(v any) (any, error) {
	doc, err := FromValue(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return doc["v"], nil
}

// Match reports whether doc satisfies filter and where the first matching
// array elements are.
func Match(doc Document, filter bson.M) (bool, Positions, error) {
	pos := Positions{}
	for key, raw := range filter {
		if strings.HasPrefix(key, "$") {
			return false, nil, fmt.Errorf("docpath: unsupported filter operator %q", key)
		}
		want, err := value(raw)
		if err != nil {
			return false, nil, err
		}
		if m, ok := want.(map[string]any); ok && hasOperator(m) {
			return false, nil, fmt.Errorf("docpath: unsupported operator in filter on %q", key)
		}
		if !matchPath(doc, strings.Split(key, "."), want, "", pos) {
			return false, nil, nil
		}
	}
	return true, pos, nil
}

func hasOperator(m map[string]any) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func matchPath(cur any, segs []string, want any, prefix string, pos Positions) bool {
	if len(segs) == 0 {
		return equalOrContains(cur, want)
	}
	switch node := cur.(type) {
	case map[string]any:
		next, ok := node[segs[0]]
		if !ok {
			return want == nil
		}
		return matchPath(next, segs[1:], want, join(prefix, segs[0]), pos)
	case []any:
		if i, err := strconv.Atoi(segs[0]); err == nil {
			if i < 0 || i >= len(node) {
				return false
			}
			return matchPath(node[i], segs[1:], want, prefix, pos)
		}
		for i, el := range node {
			if matchPath(el, segs, want, prefix, pos) {
				if _, seen := pos[prefix]; !seen {
					pos[prefix] = i
				}
				return true
			}
		}
		return false
	default:
		return false
	}
}

func equalOrContains(cur, want any) bool {
	if reflect.DeepEqual(cur, want) {
		return true
	}
	arr, ok := cur.([]any)
	if !ok {
		return false
	}
	if _, wantArr := want.([]any); wantArr {
		return false
	}
	for _, el := range arr {
		if reflect.DeepEqual(el, want) {
			return true
		}
	}
	return false
}

func join(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	return prefix + "." + seg
}
