package logx

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

const maxFormatDepth = 6

// formatArg renders structured debug arguments; scalars pass through untouched
func formatArg(arg any) any {
	switch arg.(type) {
	case nil, string, bool, int, int32, int64, uint, uint32, uint64, float32, float64, error, fmt.Stringer:
		return arg
	}
	return formatValue(arg)
}

func formatValue(v any) string {
	return formatReflect(reflect.ValueOf(v), 0)
}

func formatReflect(v reflect.Value, depth int) string {
	if !v.IsValid() {
		return "<nil>"
	}
	if depth > maxFormatDepth {
		return "..."
	}

	if v.CanInterface() {
		switch val := v.Interface().(type) {
		case error:
			if v.Kind() == reflect.Ptr && v.IsNil() {
				return "nil"
			}
			return fmt.Sprintf("Error(%q)", val.Error())
		case time.Time:
			return fmt.Sprintf("Time(%q)", val.Format(time.RFC3339))
		case []byte:
			return fmt.Sprintf("[]byte(%q)", string(val))
		}
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return "nil"
		}
		prefix := ""
		if v.Kind() == reflect.Ptr {
			prefix = "&"
		}
		return prefix + formatReflect(v.Elem(), depth)
	case reflect.String:
		return fmt.Sprintf("%q", v.String())
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			parts = append(parts, formatReflect(v.Index(i), depth+1))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Map:
		keys := v.MapKeys()
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", formatReflect(k, depth+1), formatReflect(v.MapIndex(k), depth+1)))
		}
		return "map{" + strings.Join(parts, ", ") + "}"
	case reflect.Struct:
		t := v.Type()
		parts := make([]string, 0, v.NumField())
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s: %s", t.Field(i).Name, formatReflect(v.Field(i), depth+1)))
		}
		name := t.Name()
		if name == "" {
			name = "struct"
		}
		return name + "{" + strings.Join(parts, ", ") + "}"
	default:
		if v.CanInterface() {
			return fmt.Sprintf("%v", v.Interface())
		}
		return "<" + v.Type().String() + ">"
	}
}
