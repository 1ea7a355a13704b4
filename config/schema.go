package config

import (
	"encoding/json"
	"path"
	"reflect"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for ftrack.yml from the Config types.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		ExpandedStruct:             true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		Anonymous:                  true,
		FieldNameTag:               "yaml",
		Namer:                      qualifiedName,
	}

	schema := r.Reflect(&Config{})
	schema.Title = "ftrack configuration"
	schema.Description = "Schema for ftrack.yml and ftrack.toml."

	return json.MarshalIndent(schema, "", "  ")
}

// qualifiedName keys schema definitions by package so config.Config and
// logging.Config don't overwrite each other.
func qualifiedName(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == "" {
		return t.Name()
	}
	return path.Base(t.PkgPath()) + "." + t.Name()
}
