// SPDX-License-Identifier: MPL-2.0

package config

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/refbridge/refbridge/internal/session"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// These tests keep the Go struct tags and the CUE schema field names in
// step, so that a renamed field cannot be silently ignored when parsing.

// extractCUEFields returns the top-level field names of a CUE definition and
// whether each is optional.
func extractCUEFields(t *testing.T, val cue.Value) map[string]bool {
	t.Helper()

	fields := make(map[string]bool)

	iter, err := val.Fields(cue.Definitions(false), cue.Optional(true))
	if err != nil {
		t.Fatalf("failed to iterate CUE fields: %v", err)
	}

	for iter.Next() {
		sel := iter.Selector()
		if sel.LabelType().IsHidden() || sel.IsDefinition() {
			continue
		}
		fields[strings.TrimSuffix(sel.String(), "?")] = iter.IsOptional()
	}

	return fields
}

// extractGoTags returns the names a struct exposes under the given tag key.
func extractGoTags(t *testing.T, typ reflect.Type, key string) map[string]bool {
	t.Helper()

	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		t.Fatalf("expected struct type, got %s", typ.Kind())
	}

	fields := make(map[string]bool)
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		parts := strings.Split(field.Tag.Get(key), ",")
		if parts[0] == "" || parts[0] == "-" {
			continue
		}
		fields[parts[0]] = slices.Contains(parts[1:], "omitempty")
	}

	return fields
}

func assertFieldsSync(t *testing.T, structName string, cueFields, goFields map[string]bool) {
	t.Helper()

	for field := range cueFields {
		if _, exists := goFields[field]; !exists {
			t.Errorf("[%s] CUE field %q not found in Go struct", structName, field)
		}
	}
	for field := range goFields {
		if _, exists := cueFields[field]; !exists {
			t.Errorf("[%s] Go tag %q not found in CUE schema", structName, field)
		}
	}
}

func lookupDefinition(t *testing.T, defPath string) cue.Value {
	t.Helper()

	schema := cuecontext.New().CompileString(configSchema)
	if schema.Err() != nil {
		t.Fatalf("failed to compile CUE schema: %v", schema.Err())
	}
	def := schema.LookupPath(cue.ParsePath(defPath))
	if def.Err() != nil {
		t.Fatalf("failed to lookup CUE definition %s: %v", defPath, def.Err())
	}
	return def
}

func TestConfigSchemaSync(t *testing.T) {
	t.Parallel()

	tests := []struct {
		def string
		typ reflect.Type
	}{
		{"#Config", reflect.TypeFor[Config]()},
		{"#BuildConfig", reflect.TypeFor[BuildConfig]()},
		{"#ProjectConfig", reflect.TypeFor[ProjectConfig]()},
		{"#RuntimeConfig", reflect.TypeFor[RuntimeConfig]()},
		{"#FilterConfig", reflect.TypeFor[FilterConfig]()},
		{"#FrameworkConfig", reflect.TypeFor[FrameworkConfig]()},
		{"#Sibling", reflect.TypeFor[session.Sibling]()},
		{"#ServerConfig", reflect.TypeFor[ServerConfig]()},
		{"#UIConfig", reflect.TypeFor[UIConfig]()},
	}

	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			t.Parallel()
			cueFields := extractCUEFields(t, lookupDefinition(t, tt.def))
			assertFieldsSync(t, tt.typ.Name(), cueFields, extractGoTags(t, tt.typ, "json"))
			assertFieldsSync(t, tt.typ.Name(), cueFields, extractGoTags(t, tt.typ, "mapstructure"))
		})
	}
}

func TestConfigSchema_AllTopLevelFieldsOptional(t *testing.T) {
	t.Parallel()

	for name, optional := range extractCUEFields(t, lookupDefinition(t, "#Config")) {
		if !optional {
			t.Errorf("#Config field %q should be optional", name)
		}
	}
}
