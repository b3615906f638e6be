package fyaml

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Marshal returns the YAML encoding of v in block style.
//
// This function works like json.Marshal, converting a Go value into a
// YAML formatted byte slice. It traverses the data structure
// recursively.
//
// The mapping from Go types to YAML is as follows:
//   - bool -> true | false
//   - int, float, etc. -> number (.inf/.nan for the special floats)
//   - string -> plain scalar, quoted when plain would change its type
//   - struct -> mapping, field order preserved
//   - map -> mapping with sorted keys
//   - slice, array -> sequence
//   - nil pointer or interface -> null
//
// Struct fields can be customized with `yaml` tags. For example:
//
//	// Field appears as 'my_field' in YAML.
//	Field int `yaml:"my_field"`
//
//	// Field is ignored.
//	Field int `yaml:"-"`
//
//	// Field is dropped when it holds its zero value.
//	Field int `yaml:"my_field,omitempty"`
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// An Encoder writes YAML documents to an output stream. Each Encode
// call emits one document; from the second onwards an explicit "---"
// separates them.
type Encoder struct {
	emit *Emitter
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer, opts ...EmitOption) *Encoder {
	return &Encoder{emit: NewEmitter(w, opts...)}
}

// Encode writes the YAML encoding of v to the stream. See the
// documentation for Marshal for details about the conversion of Go
// values to YAML.
func (enc *Encoder) Encode(v any) error {
	d := &Document{startImplicit: true, endImplicit: true, anchors: map[string]*Node{}}
	root, err := valueNode(d, reflect.ValueOf(v))
	if err != nil {
		return err
	}
	d.root = root
	return enc.emit.Emit(d)
}

// valueNode builds a document node from a Go value by reflection.
func valueNode(d *Document, v reflect.Value) (*Node, error) {
	v = indirect(v)
	if !v.IsValid() {
		return scalarNode(d, "", StylePlain), nil
	}

	switch v.Kind() {
	case reflect.Map:
		return mapNode(d, v)
	case reflect.Struct:
		return structNode(d, v)
	case reflect.Slice, reflect.Array:
		return sliceNode(d, v)
	case reflect.String:
		return stringNode(d, v.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return scalarNode(d, strconv.FormatInt(v.Int(), 10), StylePlain), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return scalarNode(d, strconv.FormatUint(v.Uint(), 10), StylePlain), nil
	case reflect.Float32, reflect.Float64:
		return scalarNode(d, formatFloat(v.Float()), StylePlain), nil
	case reflect.Bool:
		return scalarNode(d, strconv.FormatBool(v.Bool()), StylePlain), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Type())
	}
}

func scalarNode(d *Document, value string, style Style) *Node {
	return &Node{kind: NodeScalar, doc: d, value: value, style: style}
}

// stringNode quotes strings whose plain rendition a reader would type
// as something other than a string.
func stringNode(d *Document, s string) *Node {
	if looksLikeNonString(s) {
		return scalarNode(d, s, StyleSingleQuoted)
	}
	if strings.Contains(s, "\n") {
		return scalarNode(d, s, StyleLiteral)
	}
	return scalarNode(d, s, StylePlain)
}

// looksLikeNonString reports whether plain text would resolve to a
// null, boolean or number under the core schema.
func looksLikeNonString(s string) bool {
	switch s {
	case "", "~", "null", "Null", "NULL",
		"true", "True", "TRUE", "false", "False", "FALSE",
		".inf", ".Inf", ".INF", "+.inf", "-.inf", ".nan", ".NaN", ".NAN":
		return true
	}
	n := &Node{kind: NodeScalar, value: s}
	if _, err := n.Int(); err == nil {
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return false
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Keep whole floats recognizably floats.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// mapNode converts a Go map into a mapping node. Keys are sorted so the
// output is deterministic.
func mapNode(d *Document, v reflect.Value) (*Node, error) {
	if v.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("map key type must be a string, not %s", v.Type().Key())
	}
	n := &Node{kind: NodeMapping, doc: d}
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	for _, key := range keys {
		value, err := valueNode(d, v.MapIndex(key))
		if err != nil {
			return nil, err
		}
		n.pairs = append(n.pairs, NodePair{
			Key:   stringNode(d, key.String()),
			Value: value,
		})
	}
	return n, nil
}

// structNode converts a Go struct into a mapping node, honoring `yaml`
// tags and keeping field order.
func structNode(d *Document, v reflect.Value) (*Node, error) {
	n := &Node{kind: NodeMapping, doc: d}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitempty := parseStructTag(field.Tag)
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		fv := v.Field(i)
		if omitempty && fv.IsZero() {
			continue
		}
		value, err := valueNode(d, fv)
		if err != nil {
			return nil, fmt.Errorf("error encoding field %s: %w", field.Name, err)
		}
		n.pairs = append(n.pairs, NodePair{
			Key:   stringNode(d, name),
			Value: value,
		})
	}
	return n, nil
}

func sliceNode(d *Document, v reflect.Value) (*Node, error) {
	n := &Node{kind: NodeSequence, doc: d}
	for i := 0; i < v.Len(); i++ {
		item, err := valueNode(d, v.Index(i))
		if err != nil {
			return nil, fmt.Errorf("error encoding element %d: %w", i, err)
		}
		n.items = append(n.items, item)
	}
	return n, nil
}

// parseStructTag splits a `yaml:"name,omitempty"` tag into its parts.
// The name "-" marks a skipped field.
func parseStructTag(tag reflect.StructTag) (name string, omitempty bool) {
	value, ok := tag.Lookup("yaml")
	if !ok {
		return "", false
	}
	parts := strings.Split(value, ",")
	name = parts[0]
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

// indirect walks down a chain of pointers and interfaces to find the
// underlying concrete value. A nil pointer comes back as an invalid
// value, which encodes as null.
func indirect(v reflect.Value) reflect.Value {
	for {
		if !v.IsValid() {
			return v
		}
		kind := v.Kind()
		if kind != reflect.Pointer && kind != reflect.Interface {
			return v
		}
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
}
