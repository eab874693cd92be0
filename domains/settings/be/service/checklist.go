package service

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// checklistSchemaJSON constrains the checklist override a club may store:
// a list of item strings, category groupings referencing item indices, and an
// optional disclaimer.
const checklistSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["items"],
  "additionalProperties": false,
  "properties": {
    "items": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "categories": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["label", "indices"],
        "additionalProperties": false,
        "properties": {
          "label": {"type": "string", "minLength": 1},
          "indices": {
            "type": "array",
            "items": {"type": "integer", "minimum": 0}
          }
        }
      }
    },
    "disclaimer": {"type": "string"}
  }
}`

var checklistSchema = jsonschema.MustCompileString("checklist.json", checklistSchemaJSON)

// ValidateChecklist checks a raw checklist payload against the schema.
func ValidateChecklist(raw string) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return checklistSchema.Validate(doc)
}
