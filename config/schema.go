package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for spawn.yml. Extensions are not
// part of the schema; they are validated by whoever decodes them.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		Anonymous:                 true,
		// Inline nested structs so the draft-07 document has no $defs.
		DoNotReference: true,
	}

	schema := r.Reflect(&Config{})
	schema.Title = "Grove Spawn Configuration"
	schema.Description = "Schema for spawn.yml properties."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
