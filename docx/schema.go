package docx

import (
	"reflect"
	"strings"
)

type SchemaField struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Rules    string        `json:"rules,omitempty"`
	Required bool          `json:"required"`
	Fields   []SchemaField `json:"fields,omitempty"`
}

type Schema struct {
	Type   string        `json:"type"`
	Fields []SchemaField `json:"fields,omitempty"`
}

// extractSchema lists exported fields by their json name. Rules come from
// the validatex tag; a field is required when that tag says so.
func extractSchema(t reflect.Type) Schema {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	schema := Schema{Type: t.Name()}
	if t.Kind() != reflect.Struct {
		return schema
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}

		rules := field.Tag.Get("validatex")
		sf := SchemaField{
			Name:     name,
			Type:     field.Type.String(),
			Rules:    rules,
			Required: hasRule(rules, "required"),
		}

		ft := field.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft.PkgPath() != "time" {
			sf.Fields = extractSchema(ft).Fields
		}
		schema.Fields = append(schema.Fields, sf)
	}
	return schema
}

func hasRule(rules, name string) bool {
	for _, r := range strings.Split(rules, ",") {
		if r == name {
			return true
		}
	}
	return false
}
