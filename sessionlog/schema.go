package sessionlog

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// EntrySchema returns the JSON Schema of one session log line.
func EntrySchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}

	schema := r.Reflect(&Entry{})
	schema.Title = "Grove Spawn Session Log Entry"
	schema.Description = "One line of a session-<id>.log file."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
