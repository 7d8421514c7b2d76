package schema

import (
	"encoding/json"

	"github.com/cleohq/cleo/internal/errs"
)

// CheckUnknownFields decodes raw against a struct described by known (the
// set of allowed top-level JSON keys) and reports fields present in raw but
// absent from known. In Lenient mode the caller should treat the result as
// a warning; in Strict mode as VALIDATION_ERROR (§4.2).
func CheckUnknownFields(raw []byte, known map[string]bool, mode Mode) ([]string, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errs.Wrap(errs.CodeValidation, err, "decoding document for field check")
	}
	var unknown []string
	for k := range m {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 && mode == Strict {
		return unknown, errs.New(errs.CodeValidation, "unknown fields in strict mode: %v", unknown)
	}
	return unknown, nil
}

// EnvelopeSchemaURI is the $schema value every response envelope carries.
const EnvelopeSchemaURI = "https://cleo.dev/schema/envelope/v1.json"

// DocSchemaURI builds the schema URI for a persisted document kind.
func DocSchemaURI(kind string) string {
	return "https://cleo.dev/schema/" + kind + "/" + CurrentVersion + ".json"
}
