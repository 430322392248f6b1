package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Pair is one key/value member of an ordered mapping. Ordered JSON objects
// decode into []Pair so section order survives ingestion.
type Pair struct {
	Key   string
	Value any
}

// LoadDirectory builds a directory from whatever shape storage hands back:
// JSON bytes, plain maps, ordered pair lists, [key, value] tuples or the
// committed snapshot form. Leaves are converted to strings; null, empty and
// non-scalar leaves are dropped and reported, never fatal.
func LoadDirectory(raw any, platforms PlatformFinder) (*Directory, []error) {
	d := NewDirectory(platforms)
	var dropped []error

	top, err := decodeRaw(raw)
	if err != nil {
		return d, []error{fmt.Errorf("%w: %v", ErrLoadShape, err)}
	}
	if top == nil {
		return d, nil
	}

	sections, ok := asPairs(top)
	if !ok {
		return d, []error{&LoadShapeError{Got: describe(top)}}
	}

	for _, sec := range sections {
		c, ok := ParseCategory(sec.Key)
		if !ok {
			dropped = append(dropped, &LoadShapeError{Section: sec.Key, Got: "unknown section"})
			continue
		}
		dropped = append(dropped, d.loadSection(c, sec.Value)...)
	}

	return d, dropped
}

func (d *Directory) loadSection(c Category, v any) []error {
	if v == nil {
		return nil
	}

	var dropped []error
	keep := func(key, value, link string) {
		d.put(c, LinkEntry{PlatformID: key, RawValue: value, Link: link, State: LinkActive})
	}

	if pairs, ok := asPairs(v); ok {
		for _, p := range pairs {
			s, ok := scalarString(p.Value)
			if !ok || s == "" {
				dropped = append(dropped, &LoadShapeError{Section: string(c), Key: p.Key, Got: describe(p.Value)})
				continue
			}
			keep(p.Key, s, s)
		}
		return dropped
	}

	items, ok := v.([]any)
	if !ok {
		return []error{&LoadShapeError{Section: string(c), Got: describe(v)}}
	}

	for i, item := range items {
		key, value, link, ok := entryFromItem(item)
		if !ok || key == "" || link == "" {
			dropped = append(dropped, &LoadShapeError{Section: string(c), Key: strconv.Itoa(i), Got: describe(item)})
			continue
		}
		keep(key, value, link)
	}
	return dropped
}

// entryFromItem accepts a [key, value] tuple, a {key, value} object or a
// committed {platform, value, link} object.
func entryFromItem(item any) (key, value, link string, ok bool) {
	if tuple, isSlice := item.([]any); isSlice {
		if len(tuple) != 2 {
			return "", "", "", false
		}
		k, kok := tuple[0].(string)
		v, vok := scalarString(tuple[1])
		return k, v, v, kok && vok
	}

	fields, isObj := asPairs(item)
	if !isObj {
		return "", "", "", false
	}
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}

	for _, name := range []string{"platform", "key", "id"} {
		if k, ok := m[name].(string); ok {
			key = k
			break
		}
	}
	value, _ = scalarString(m["value"])
	link, _ = scalarString(m["link"])
	if link == "" {
		link = value
	}
	if value == "" {
		value = link
	}
	return key, value, link, key != ""
}

// decodeRaw turns byte/string payloads into ordered generic values.
func decodeRaw(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []byte:
		return decodeOrdered(v)
	case json.RawMessage:
		return decodeOrdered(v)
	case string:
		return decodeOrdered([]byte(v))
	default:
		return v, nil
	}
}

func decodeOrdered(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return decodeValue(dec)
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		out := make([]Pair, 0)
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := kt.(string)
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, Pair{Key: key, Value: val})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return out, nil
	case '[':
		out := make([]any, 0)
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// asPairs views v as an ordered mapping. Go maps carry no order, so their
// keys are sorted for determinism. A list qualifies only when every element
// is a [string, value] tuple.
func asPairs(v any) ([]Pair, bool) {
	switch m := v.(type) {
	case []Pair:
		return m, true
	case map[string]any:
		out := make([]Pair, 0, len(m))
		for _, k := range sortedKeys(m) {
			out = append(out, Pair{Key: k, Value: m[k]})
		}
		return out, true
	case map[string]string:
		out := make([]Pair, 0, len(m))
		for _, k := range sortedKeys(m) {
			out = append(out, Pair{Key: k, Value: m[k]})
		}
		return out, true
	case map[any]any:
		byKey := make(map[string]any, len(m))
		for k, val := range m {
			byKey[fmt.Sprint(k)] = val
		}
		return asPairs(byKey)
	case Snapshot:
		out := make([]Pair, 0, len(m))
		for _, c := range Categories {
			items := make([]any, 0, len(m[c]))
			for _, l := range m[c] {
				items = append(items, map[string]any{"platform": l.Platform, "value": l.Value, "link": l.Link})
			}
			out = append(out, Pair{Key: string(c), Value: items})
		}
		return out, true
	case []any:
		if len(m) == 0 {
			return nil, false
		}
		out := make([]Pair, 0, len(m))
		for _, item := range m {
			tuple, ok := item.([]any)
			if !ok || len(tuple) != 2 {
				return nil, false
			}
			k, ok := tuple[0].(string)
			if !ok {
				return nil, false
			}
			out = append(out, Pair{Key: k, Value: tuple[1]})
		}
		return out, true
	default:
		return nil, false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case bool:
		return strconv.FormatBool(s), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), true
	default:
		return "", false
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "list"
	case []Pair, map[string]any, map[string]string, map[any]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
