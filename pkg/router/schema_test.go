package router

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scalars struct {
	String  string  `json:"string"`
	Int     int     `json:"int"`
	Bool    bool    `json:"bool"`
	Float   float64 `json:"float"`
	Pointer *string `json:"pointer,omitempty"`
	hidden  string
	Skipped string `json:"-"`
}

type tagged struct {
	Required    string `json:"required"`
	Optional    string `json:"optional,omitempty"`
	WithDoc     string `json:"withDoc" doc:"This is documentation"`
	WithExample bool   `json:"withExample" example:"true"`
	WithCount   int    `json:"withCount" example:"42"`
	BadCount    int    `json:"badCount" example:"many"`
	WithEnum    string `json:"withEnum" enum:"value1,value2"`
}

type node struct {
	Name     string  `json:"name"`
	Parent   *node   `json:"parent,omitempty"`
	Children []node  `json:"children"`
	Owner    address `json:"owner"`
}

type address struct {
	City string `json:"city"`
}

type envelope struct {
	Meta map[string]address `json:"meta"`
	Data json.RawMessage    `json:"data"`
	At   time.Time          `json:"at"`
	Any  any                `json:"any"`
}

type base struct {
	ID string `json:"id"`
}

type withEmbedded struct {
	base
	Extra   string  `json:"extra"`
	Address address `json:"address"`
}

func TestParseJSONTag(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		jsonTag      string
		fieldName    string
		wantName     string
		wantRequired bool
	}{
		"empty tag":         {jsonTag: "", fieldName: "Field", wantName: "Field", wantRequired: true},
		"name only":         {jsonTag: "field", fieldName: "Field", wantName: "field", wantRequired: true},
		"omitempty":         {jsonTag: "field,omitempty", fieldName: "Field", wantName: "field", wantRequired: false},
		"omitempty no name": {jsonTag: ",omitempty", fieldName: "Field", wantName: "Field", wantRequired: false},
		"string option":     {jsonTag: "field,string", fieldName: "Field", wantName: "field", wantRequired: true},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			gotName, gotRequired := parseJSONTag(tc.jsonTag, tc.fieldName)
			assert.Equal(t, tc.wantName, gotName)
			assert.Equal(t, tc.wantRequired, gotRequired)
		})
	}
}

func TestSchemaGenerator_Scalars(t *testing.T) {
	t.Parallel()

	registry := newSchemaRegistry()
	ref := newSchemaGenerator(registry).generate(scalars{})

	assert.Equal(t, map[string]any{"$ref": "#/components/schemas/scalars"}, ref)

	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"string":  map[string]any{"type": "string"},
			"int":     map[string]any{"type": "integer"},
			"bool":    map[string]any{"type": "boolean"},
			"float":   map[string]any{"type": "number"},
			"pointer": map[string]any{"type": "string"},
		},
		"required": []string{"string", "int", "bool", "float"},
	}

	if diff := cmp.Diff(want, registry.getSchemas()["scalars"]); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaGenerator_Tags(t *testing.T) {
	t.Parallel()

	registry := newSchemaRegistry()
	newSchemaGenerator(registry).generate(&tagged{})

	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"required":    map[string]any{"type": "string"},
			"optional":    map[string]any{"type": "string"},
			"withDoc":     map[string]any{"type": "string", "description": "This is documentation"},
			"withExample": map[string]any{"type": "boolean", "example": true},
			"withCount":   map[string]any{"type": "integer", "example": int64(42)},
			"badCount":    map[string]any{"type": "integer", "example": "many"},
			"withEnum":    map[string]any{"type": "string", "enum": []string{"value1", "value2"}},
		},
		"required": []string{"required", "withDoc", "withExample", "withCount", "badCount", "withEnum"},
	}

	if diff := cmp.Diff(want, registry.getSchemas()["tagged"]); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaGenerator_References(t *testing.T) {
	t.Parallel()

	registry := newSchemaRegistry()
	newSchemaGenerator(registry).generate(node{})

	schemas := registry.getSchemas()
	require.Contains(t, schemas, "node")
	require.Contains(t, schemas, "address")

	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":   map[string]any{"type": "string"},
			"parent": map[string]any{"$ref": "#/components/schemas/node"},
			"children": map[string]any{
				"type":  "array",
				"items": map[string]any{"$ref": "#/components/schemas/node"},
			},
			"owner": map[string]any{"$ref": "#/components/schemas/address"},
		},
		"required": []string{"name", "children", "owner"},
	}

	if diff := cmp.Diff(want, schemas["node"]); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaGenerator_Containers(t *testing.T) {
	t.Parallel()

	registry := newSchemaRegistry()
	newSchemaGenerator(registry).generate(envelope{})

	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"meta": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"$ref": "#/components/schemas/address"},
			},
			"data": map[string]any{},
			"at":   map[string]any{"type": "string", "format": "date-time"},
			"any":  map[string]any{},
		},
		"required": []string{"meta", "data", "at", "any"},
	}

	if diff := cmp.Diff(want, registry.getSchemas()["envelope"]); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaGenerator_Embedded(t *testing.T) {
	t.Parallel()

	registry := newSchemaRegistry()
	newSchemaGenerator(registry).generate(withEmbedded{})

	schemas := registry.getSchemas()
	assert.NotContains(t, schemas, "base")

	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":      map[string]any{"type": "string"},
			"extra":   map[string]any{"type": "string"},
			"address": map[string]any{"$ref": "#/components/schemas/address"},
		},
		"required": []string{"id", "extra", "address"},
	}

	if diff := cmp.Diff(want, schemas["withEmbedded"]); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaGenerator_Unnamed(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		value any
		want  map[string]any
	}{
		"nil": {value: nil, want: nil},
		"string": {
			value: "",
			want:  map[string]any{"type": "string"},
		},
		"slice of named": {
			value: []address{},
			want: map[string]any{
				"type":  "array",
				"items": map[string]any{"$ref": "#/components/schemas/address"},
			},
		},
		"anonymous struct": {
			value: struct {
				Count int `json:"count"`
			}{},
			want: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"count": map[string]any{"type": "integer"},
				},
				"required": []string{"count"},
			},
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := newSchemaGenerator(newSchemaRegistry()).generate(tc.value)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("schema mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
