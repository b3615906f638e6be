package fyaml

import (
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
)

// Decoder reads and decodes YAML documents from an input stream. Each
// Decode call consumes one document, so multi-document streams can be
// drained by calling Decode until io.EOF.
type Decoder struct {
	parser *Parser
}

// NewDecoder returns a new decoder that reads from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	return &Decoder{parser: NewParser(InputReader(r), opts...)}
}

// Decode reads the next document from the stream and stores the result
// in the value pointed to by v. It returns io.EOF when the stream is
// exhausted.
func (dec *Decoder) Decode(v any) error {
	doc, err := dec.parser.NextDocument()
	if err != nil {
		return err
	}
	if doc == nil {
		return io.EOF
	}
	return setValue(v, nodeValue(doc.Root()))
}

// Unmarshal parses YAML data and stores the first document in the value
// pointed to by v. If v is nil or not a pointer, it returns an error.
//
// Scalars map to Go values by the core schema:
//   - strings for quoted and block scalars, and plain text
//   - int64 for integers (decimal, 0x hex, 0o octal)
//   - float64 for floats, including .inf and .nan
//   - bool for true/false
//   - nil for null and empty plain scalars
//
// Sequences become []any, mappings map[string]any, and structs are
// filled by field name or `yaml:"…"` tag.
func Unmarshal(data []byte, v any) error {
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	return setValue(v, nodeValue(doc.Root()))
}

// nodeValue lowers a document node to the generic Go value its core
// schema typing implies. Plain scalars get typed; any quoting forces a
// string.
func nodeValue(n *Node) any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case NodeSequence:
		out := make([]any, 0, len(n.items))
		for _, it := range n.items {
			out = append(out, nodeValue(it))
		}
		return out
	case NodeMapping:
		out := make(map[string]any, len(n.pairs))
		for _, p := range n.pairs {
			out[p.Key.Scalar()] = nodeValue(p.Value)
		}
		return out
	}
	if n.style != StylePlain {
		return n.value
	}
	if n.IsNull() {
		return nil
	}
	if b, err := n.Bool(); err == nil {
		return b
	}
	if i, err := n.Int(); err == nil {
		return i
	}
	if f, err := n.Float(); err == nil {
		return f
	}
	return n.value
}

// setValue sets the destination value from the lowered source value.
func setValue(dst, src any) error {
	if dst == nil {
		return errors.New("cannot unmarshal into a nil value")
	}

	val := reflect.ValueOf(dst)
	if val.Kind() != reflect.Ptr {
		return errors.New("destination is not a pointer")
	}
	if val.IsNil() {
		return errors.New("destination pointer is nil")
	}

	return setValueReflect(val.Elem(), src)
}

// setValueReflect recursively sets values to dst from src using reflection.
func setValueReflect(dst reflect.Value, src any) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	s := reflect.ValueOf(src)

	// If the destination is an interface, set it directly.
	if dst.Kind() == reflect.Interface {
		if s.IsValid() {
			dst.Set(s)
		} else {
			dst.Set(reflect.Zero(dst.Type()))
		}
		return nil
	}

	// Assign directly if types are compatible.
	if s.IsValid() && s.Type().AssignableTo(dst.Type()) {
		dst.Set(s)
		return nil
	}

	// Handle type conversions.
	switch dst.Kind() {
	case reflect.Struct:
		return setStruct(dst, src)
	case reflect.Slice:
		return setSlice(dst, src)
	case reflect.Map:
		return setMap(dst, src)
	case reflect.Ptr:
		return setPtr(dst, src)
	case reflect.String:
		return setString(dst, src)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(dst, src)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUint(dst, src)
	case reflect.Float32, reflect.Float64:
		return setFloat(dst, src)
	case reflect.Bool:
		return setBool(dst, src)
	default:
		return fmt.Errorf("cannot unmarshal %T into %s", src, dst.Type())
	}
}

// setStruct unmarshals a mapping into a struct.
func setStruct(dst reflect.Value, src any) error {
	srcMap, ok := src.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot unmarshal %T into struct", src)
	}

	structType := dst.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := dst.Field(i)

		// Skip unexported fields.
		if !fieldValue.CanSet() {
			continue
		}

		fieldName := getFieldName(field)
		if fieldName == "-" {
			continue
		}

		if srcValue, exists := srcMap[fieldName]; exists {
			if err := setValueReflect(fieldValue, srcValue); err != nil {
				return fmt.Errorf("error setting field %s: %w", field.Name, err)
			}
		}
	}

	return nil
}

// getFieldName returns the field name to use for mapping, checking for
// a `yaml` struct tag.
func getFieldName(field reflect.StructField) string {
	name, _ := parseStructTag(field.Tag)
	if name == "" {
		return field.Name
	}
	return name
}

// setSlice unmarshals a sequence into a slice.
func setSlice(dst reflect.Value, src any) error {
	srcSlice, ok := src.([]any)
	if !ok {
		return fmt.Errorf("cannot unmarshal %T into slice", src)
	}

	sliceType := dst.Type()
	newSlice := reflect.MakeSlice(sliceType, len(srcSlice), len(srcSlice))

	for i, srcElem := range srcSlice {
		if err := setValueReflect(newSlice.Index(i), srcElem); err != nil {
			return fmt.Errorf("error setting slice element %d: %w", i, err)
		}
	}

	dst.Set(newSlice)
	return nil
}

// setMap unmarshals a src map into a dest map.
func setMap(dst reflect.Value, src any) error {
	srcMap, ok := src.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot unmarshal %T into map", src)
	}

	mapType := dst.Type()
	keyType := mapType.Key()
	valueType := mapType.Elem()

	// Only support string keys (like JSON).
	if keyType.Kind() != reflect.String {
		return fmt.Errorf("maps with non-string keys are not supported")
	}

	newMap := reflect.MakeMap(mapType)
	for key, srcValue := range srcMap {
		valueValue := reflect.New(valueType).Elem()
		if err := setValueReflect(valueValue, srcValue); err != nil {
			return fmt.Errorf("error setting map value for key %s: %w", key, err)
		}
		newMap.SetMapIndex(reflect.ValueOf(key), valueValue)
	}

	dst.Set(newMap)
	return nil
}

// setPtr unmarshals into a pointer.
func setPtr(dst reflect.Value, src any) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	newPtr := reflect.New(dst.Type().Elem())
	if err := setValueReflect(newPtr.Elem(), src); err != nil {
		return err
	}

	dst.Set(newPtr)
	return nil
}

// setString converts various types to string.
func setString(dst reflect.Value, src any) error {
	switch v := src.(type) {
	case string:
		dst.SetString(v)
		return nil
	default:
		return fmt.Errorf("cannot unmarshal %T into string", src)
	}
}

// setInt converts various numeric types to int.
func setInt(dst reflect.Value, src any) error {
	switch v := src.(type) {
	case int64:
		if dst.OverflowInt(v) {
			return fmt.Errorf("value %d overflows %s", v, dst.Type())
		}
		dst.SetInt(v)
		return nil
	case float64:
		// Convert float to int if it's a whole number.
		if v != math.Trunc(v) {
			return fmt.Errorf("cannot unmarshal float %g into integer type", v)
		}
		intVal := int64(v)
		if dst.OverflowInt(intVal) {
			return fmt.Errorf("value %g overflows %s", v, dst.Type())
		}
		dst.SetInt(intVal)
		return nil
	default:
		return fmt.Errorf("cannot unmarshal %T into integer", src)
	}
}

// setUint converts various numeric types to uint.
func setUint(dst reflect.Value, src any) error {
	switch v := src.(type) {
	case int64:
		if v < 0 {
			return fmt.Errorf("cannot unmarshal negative value %d into unsigned integer", v)
		}
		uintVal := uint64(v)
		if dst.OverflowUint(uintVal) {
			return fmt.Errorf("value %d overflows %s", v, dst.Type())
		}
		dst.SetUint(uintVal)
		return nil
	case float64:
		if v < 0 {
			return fmt.Errorf("cannot unmarshal negative value %g into unsigned integer", v)
		}
		if v != math.Trunc(v) {
			return fmt.Errorf("cannot unmarshal float %g into integer type", v)
		}
		uintVal := uint64(v)
		if dst.OverflowUint(uintVal) {
			return fmt.Errorf("value %g overflows %s", v, dst.Type())
		}
		dst.SetUint(uintVal)
		return nil
	default:
		return fmt.Errorf("cannot unmarshal %T into unsigned integer", src)
	}
}

// setFloat converts various numeric types to float.
func setFloat(dst reflect.Value, src any) error {
	switch v := src.(type) {
	case int64:
		floatVal := float64(v)
		if dst.OverflowFloat(floatVal) {
			return fmt.Errorf("value %d overflows %s", v, dst.Type())
		}
		dst.SetFloat(floatVal)
		return nil
	case float64:
		if dst.OverflowFloat(v) {
			return fmt.Errorf("value %g overflows %s", v, dst.Type())
		}
		dst.SetFloat(v)
		return nil
	default:
		return fmt.Errorf("cannot unmarshal %T into float", src)
	}
}

// setBool converts various types to bool.
func setBool(dst reflect.Value, src any) error {
	switch v := src.(type) {
	case bool:
		dst.SetBool(v)
		return nil
	default:
		return fmt.Errorf("cannot unmarshal %T into bool", src)
	}
}
