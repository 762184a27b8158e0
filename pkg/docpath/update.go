package docpath

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

var identifierRe = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)

type leafFunc func(container any, key string) (bool, error)

type applier struct {
	pos     Positions
	filters map[string]bson.M
}

// Apply executes update against doc in place and reports whether any value
// changed. Setting a field to the value it already holds is not a change.
// On error doc may be partially modified; callers apply to a Clone.
func Apply(doc Document, update bson.M, pos Positions, arrayFilters []bson.M) (bool, error) {
	filters, err := groupArrayFilters(arrayFilters)
	if err != nil {
		return false, err
	}
	a := &applier{pos: pos, filters: filters}

	modified := false
	for op, spec := range update {
		var fields map[string]any
		switch f := spec.(type) {
		case bson.M:
			fields = f
		case map[string]any:
			fields = f
		default:
			return false, fmt.Errorf("docpath: %s expects a document, got %T", op, spec)
		}
		for path, raw := range fields {
			v, err := value(raw)
			if err != nil {
				return false, err
			}
			var leaf leafFunc
			switch op {
			case "$set":
				leaf = setLeaf(v)
			case "$push":
				leaf = pushLeaf(path, v)
			default:
				return false, fmt.Errorf("docpath: unsupported update operator %q", op)
			}
			changed, err := a.walk(doc, strings.Split(path, "."), "", leaf)
			if err != nil {
				return false, err
			}
			modified = modified || changed
		}
	}
	return modified, nil
}

func groupArrayFilters(arrayFilters []bson.M) (map[string]bson.M, error) {
	out := make(map[string]bson.M, len(arrayFilters))
	for _, f := range arrayFilters {
		ident := ""
		for key, raw := range f {
			name, rest, _ := strings.Cut(key, ".")
			if !identifierRe.MatchString(name) {
				return nil, fmt.Errorf("docpath: invalid array filter identifier %q", name)
			}
			if ident != "" && ident != name {
				return nil, fmt.Errorf("docpath: array filter mixes identifiers %q and %q", ident, name)
			}
			ident = name
			want, err := value(raw)
			if err != nil {
				return nil, err
			}
			if out[name] == nil {
				out[name] = bson.M{}
			}
			out[name][rest] = want
		}
	}
	return out, nil
}

func (a *applier) walk(cur any, segs []string, prefix string, leaf leafFunc) (bool, error) {
	seg := segs[0]
	last := len(segs) == 1

	switch node := cur.(type) {
	case map[string]any:
		if isPositional(seg) {
			return false, fmt.Errorf("docpath: positional %q used on a document at %q", seg, prefix)
		}
		if last {
			return leaf(node, seg)
		}
		next, ok := node[seg]
		if !ok || next == nil {
			if isPositional(segs[1]) {
				return false, fmt.Errorf("docpath: %q is not an array", join(prefix, seg))
			}
			child := map[string]any{}
			node[seg] = child
			next = child
		}
		return a.walk(next, segs[1:], join(prefix, seg), leaf)

	case []any:
		idxs, err := a.indexes(node, seg, prefix)
		if err != nil {
			return false, err
		}
		modified := false
		for _, i := range idxs {
			var changed bool
			if last {
				changed, err = leaf(node, strconv.Itoa(i))
			} else {
				changed, err = a.walk(node[i], segs[1:], prefix, leaf)
			}
			if err != nil {
				return false, err
			}
			modified = modified || changed
		}
		return modified, nil

	default:
		return false, fmt.Errorf("docpath: cannot descend into %T at %q", cur, prefix)
	}
}

func isPositional(seg string) bool {
	return strings.HasPrefix(seg, "$")
}

func (a *applier) indexes(arr []any, seg, prefix string) ([]int, error) {
	switch {
	case seg == "$":
		i, ok := a.pos[prefix]
		if !ok || i >= len(arr) {
			return nil, fmt.Errorf("docpath: positional operator did not find the match needed from the query on %q", prefix)
		}
		return []int{i}, nil

	case seg == "$[]":
		all := make([]int, len(arr))
		for i := range arr {
			all[i] = i
		}
		return all, nil

	case strings.HasPrefix(seg, "$[") && strings.HasSuffix(seg, "]"):
		ident := seg[2 : len(seg)-1]
		f, ok := a.filters[ident]
		if !ok {
			return nil, fmt.Errorf("docpath: no array filter found for identifier %q", ident)
		}
		var out []int
		for i, el := range arr {
			if elementMatches(el, f) {
				out = append(out, i)
			}
		}
		return out, nil
	}

	i, err := strconv.Atoi(seg)
	if err != nil {
		return nil, fmt.Errorf("docpath: cannot use field %q on the array at %q", seg, prefix)
	}
	if i < 0 || i >= len(arr) {
		return nil, fmt.Errorf("docpath: index %d out of range at %q", i, prefix)
	}
	return []int{i}, nil
}

func elementMatches(el any, f bson.M) bool {
	for rest, want := range f {
		if rest == "" {
			if !equalOrContains(el, want) {
				return false
			}
			continue
		}
		if !matchPath(el, strings.Split(rest, "."), want, "", Positions{}) {
			return false
		}
	}
	return true
}

func setLeaf(v any) leafFunc {
	return func(container any, key string) (bool, error) {
		switch c := container.(type) {
		case map[string]any:
			if old, ok := c[key]; ok && reflect.DeepEqual(old, v) {
				return false, nil
			}
			c[key] = Plain(v)
		case []any:
			i, _ := strconv.Atoi(key)
			if reflect.DeepEqual(c[i], v) {
				return false, nil
			}
			c[i] = Plain(v)
		}
		return true, nil
	}
}

func pushLeaf(path string, v any) leafFunc {
	return func(container any, key string) (bool, error) {
		var cur any
		var present bool
		switch c := container.(type) {
		case map[string]any:
			cur, present = c[key]
		case []any:
			i, _ := strconv.Atoi(key)
			cur, present = c[i], true
		}

		var arr []any
		if present {
			var ok bool
			if arr, ok = cur.([]any); !ok {
				return false, fmt.Errorf("docpath: $push target %q must be an array, got %T", path, cur)
			}
		}
		arr = append(arr, Plain(v))

		switch c := container.(type) {
		case map[string]any:
			c[key] = arr
		case []any:
			i, _ := strconv.Atoi(key)
			c[i] = arr
		}
		return true, nil
	}
}
