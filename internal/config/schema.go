// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id of the generated config schema.
const SchemaID = "https://holomush.dev/schemas/holoauth-config.schema.json"

var (
	compileOnce sync.Once
	compiled    *jschema.Schema
	compileErr  error
)

// GenerateSchema reflects Config into an indented JSON Schema document.
// Unknown keys are rejected.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&Config{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "HoloAuth Configuration"
	schema.Description = "Schema for holoauth.yaml configuration files"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("CONFIG_SCHEMA_FAILED").With("operation", "marshal schema").Wrap(err)
	}
	return data, nil
}

func compiledSchema() (*jschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := GenerateSchema()
		if err != nil {
			compileErr = err
			return
		}
		doc, err := jschema.UnmarshalJSON(strings.NewReader(string(raw)))
		if err != nil {
			compileErr = oops.Code("CONFIG_SCHEMA_FAILED").With("operation", "parse schema").Wrap(err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("config.schema.json", doc); err != nil {
			compileErr = oops.Code("CONFIG_SCHEMA_FAILED").With("operation", "add schema resource").Wrap(err)
			return
		}
		compiled, compileErr = c.Compile("config.schema.json")
		if compileErr != nil {
			compileErr = oops.Code("CONFIG_SCHEMA_FAILED").With("operation", "compile schema").Wrap(compileErr)
		}
	})
	return compiled, compileErr
}

// ValidateYAML checks a config file against the schema. Partial files are
// fine; every key present must be known and well typed.
func ValidateYAML(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.Code("CONFIG_INVALID_YAML").Wrap(err)
	}
	if doc == nil {
		return nil
	}
	return validateDocument(doc, false)
}

// validateValue checks a fully populated value, so required fields apply.
func validateValue(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return oops.Code("CONFIG_SCHEMA_FAILED").With("operation", "marshal config").Wrap(err)
	}
	doc, err := jschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return oops.Code("CONFIG_SCHEMA_FAILED").With("operation", "decode config").Wrap(err)
	}
	return validateDocument(doc, true)
}

func validateDocument(doc any, full bool) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if !full {
		doc = withDefaults(doc)
	}
	if err := sch.Validate(toJSONTypes(doc)); err != nil {
		return oops.Code("CONFIG_SCHEMA_VIOLATION").Wrap(err)
	}
	return nil
}

// withDefaults fills keys a partial file leaves out so that required
// properties are satisfied.
func withDefaults(doc any) any {
	user, ok := doc.(map[string]any)
	if !ok {
		return doc
	}
	raw, err := json.Marshal(Default())
	if err != nil {
		return doc
	}
	var base map[string]any
	if err := json.Unmarshal(raw, &base); err != nil {
		return doc
	}
	return mergeMaps(base, user)
}

func mergeMaps(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		if bm, ok := out[k].(map[string]any); ok {
			if om, ok := v.(map[string]any); ok {
				out[k] = mergeMaps(bm, om)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// toJSONTypes rebuilds nested maps and slices as map[string]any and []any.
func toJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = toJSONTypes(v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = toJSONTypes(v)
		}
		return out
	default:
		return val
	}
}
