package validatex

import (
	"reflect"
	"strings"
)

type fieldInfo struct {
	Name  string
	Value any
	Rules []ruleInfo
}

type ruleInfo struct {
	Name  string
	Param string
}

// structFields collects tagged fields, descending into nested structs.
// Field names use the json tag when present so errors match the wire names.
func structFields(obj any) ([]fieldInfo, error) {
	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, validationErrors.New(ErrNotStruct).WithDetail("kind", val.Kind().String())
	}

	typ := val.Type()
	var fields []fieldInfo
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := wireName(field)
		fv := val.Field(i)

		if tag := field.Tag.Get("validatex"); tag != "" && tag != "-" {
			fields = append(fields, fieldInfo{Name: name, Value: fv.Interface(), Rules: parseTag(tag)})
		}

		inner := fv
		if inner.Kind() == reflect.Ptr && !inner.IsNil() {
			inner = inner.Elem()
		}
		if inner.Kind() == reflect.Struct && inner.Type().PkgPath() != "time" {
			nested, err := structFields(inner.Interface())
			if err != nil {
				return nil, err
			}
			for _, n := range nested {
				n.Name = name + "." + n.Name
				fields = append(fields, n)
			}
		}
	}
	return fields, nil
}

func wireName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name
		}
	}
	return f.Name
}

func parseTag(tag string) []ruleInfo {
	var rules []ruleInfo
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, param, _ := strings.Cut(part, "=")
		rules = append(rules, ruleInfo{Name: name, Param: param})
	}
	return rules
}

func isZero(value any) bool {
	if value == nil {
		return true
	}
	val := reflect.ValueOf(value)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface:
		return val.IsNil()
	case reflect.String:
		return strings.TrimSpace(val.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return val.Len() == 0
	default:
		return val.IsZero()
	}
}

func deref(value any) any {
	val := reflect.ValueOf(value)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if !val.IsValid() {
		return nil
	}
	return val.Interface()
}
