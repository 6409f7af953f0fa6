package router

import (
	"encoding/json"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

const schemaRefPrefix = "#/components/schemas/"

var (
	timeType       = reflect.TypeOf(time.Time{})
	rawMessageType = reflect.TypeOf(json.RawMessage{})
)

// schemaRegistry tracks schema definitions to enable reuse
type schemaRegistry struct {
	schemas map[string]map[string]any
}

// newSchemaRegistry creates a new schema registry
func newSchemaRegistry() *schemaRegistry {
	return &schemaRegistry{
		schemas: make(map[string]map[string]any),
	}
}

// register adds a schema to the registry
func (r *schemaRegistry) register(typeName string, schema map[string]any) {
	r.schemas[typeName] = schema
}

func (r *schemaRegistry) has(typeName string) bool {
	_, ok := r.schemas[typeName]
	return ok
}

// getSchemas returns all registered schemas
func (r *schemaRegistry) getSchemas() map[string]any {
	result := make(map[string]any, len(r.schemas))
	for name, schema := range r.schemas {
		result[name] = schema
	}
	return result
}

// schemaGenerator converts Go types to JSON Schema. Named structs are
// registered as components and referenced with $ref.
type schemaGenerator struct {
	registry *schemaRegistry
}

// newSchemaGenerator creates a new schema generator
func newSchemaGenerator(registry *schemaRegistry) *schemaGenerator {
	return &schemaGenerator{registry: registry}
}

// generate converts the type of t to a JSON Schema
func (g *schemaGenerator) generate(t any) map[string]any {
	if t == nil {
		return nil
	}

	return g.schemaFor(reflect.TypeOf(t))
}

func (g *schemaGenerator) schemaFor(typ reflect.Type) map[string]any {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	switch typ {
	case timeType:
		return map[string]any{"type": "string", "format": "date-time"}
	case rawMessageType:
		return map[string]any{}
	}

	if schema := basicTypeSchema(typ.Kind()); schema != nil {
		return schema
	}

	switch typ.Kind() {
	case reflect.Struct:
		if typ.Name() == "" {
			return g.structSchema(typ)
		}
		return g.ref(typ)
	case reflect.Slice, reflect.Array:
		return map[string]any{
			"type":  "array",
			"items": g.schemaFor(typ.Elem()),
		}
	case reflect.Map:
		return map[string]any{
			"type":                 "object",
			"additionalProperties": g.schemaFor(typ.Elem()),
		}
	case reflect.Interface:
		// any value
		return map[string]any{}
	default:
		return map[string]any{"type": "object"}
	}
}

// ref registers a named struct and returns a reference to it
func (g *schemaGenerator) ref(typ reflect.Type) map[string]any {
	name := typ.Name()

	if !g.registry.has(name) {
		// placeholder first so self references terminate
		g.registry.register(name, map[string]any{})
		g.registry.register(name, g.structSchema(typ))
	}

	return map[string]any{"$ref": schemaRefPrefix + name}
}

// structSchema converts a struct type to an object schema, inlining
// anonymous embedded structs the way encoding/json flattens them
func (g *schemaGenerator) structSchema(typ reflect.Type) map[string]any {
	properties := make(map[string]any)
	var required []string

	g.collectFields(typ, properties, &required)

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func (g *schemaGenerator) collectFields(typ reflect.Type, properties map[string]any, required *[]string) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		if field.Anonymous && jsonTagName(jsonTag) == "" {
			embedded := field.Type
			if embedded.Kind() == reflect.Ptr {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				g.collectFields(embedded, properties, required)
				continue
			}
		}

		// skip unexported fields
		if !field.IsExported() {
			continue
		}

		name, isRequired := parseJSONTag(jsonTag, field.Name)
		if isRequired && !slices.Contains(*required, name) {
			*required = append(*required, name)
		}

		properties[name] = g.fieldSchema(field)
	}
}

// fieldSchema converts a struct field and its documentation tags
func (g *schemaGenerator) fieldSchema(field reflect.StructField) map[string]any {
	schema := g.schemaFor(field.Type)

	// siblings of $ref are ignored by OpenAPI 3.0
	if _, isRef := schema["$ref"]; isRef {
		return schema
	}

	addFieldMetadata(schema, field)

	return schema
}

func jsonTagName(jsonTag string) string {
	name, _, _ := strings.Cut(jsonTag, ",")
	return name
}

// parseJSONTag extracts name and required status from a json tag
func parseJSONTag(jsonTag, fieldName string) (string, bool) {
	if jsonTag == "" {
		return fieldName, true
	}

	parts := strings.Split(jsonTag, ",")
	name := parts[0]
	if name == "" {
		name = fieldName
	}

	return name, !slices.Contains(parts[1:], "omitempty")
}

// addFieldMetadata adds documentation from struct tags to a schema
func addFieldMetadata(schema map[string]any, field reflect.StructField) {
	if docTag := field.Tag.Get("doc"); docTag != "" {
		schema["description"] = docTag
	}

	if exampleTag := field.Tag.Get("example"); exampleTag != "" {
		schema["example"] = typedExample(field.Type, exampleTag)
	}

	if enumTag := field.Tag.Get("enum"); enumTag != "" {
		schema["enum"] = strings.Split(enumTag, ",")
	}
}

// typedExample parses an example tag according to the field kind so that
// e.g. booleans are documented as true rather than "true"
func typedExample(typ reflect.Type, example string) any {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	switch typ.Kind() {
	case reflect.Bool:
		if v, err := strconv.ParseBool(example); err == nil {
			return v
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v, err := strconv.ParseInt(example, 10, 64); err == nil {
			return v
		}
	case reflect.Float32, reflect.Float64:
		if v, err := strconv.ParseFloat(example, 64); err == nil {
			return v
		}
	}

	return example
}

// basicTypeSchema creates a schema for a basic Go type
func basicTypeSchema(kind reflect.Kind) map[string]any {
	switch kind {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.String:
		return map[string]any{"type": "string"}
	default:
		return nil
	}
}
