package reporting

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"ram/internal/errs"
)

// FixtureSchema returns the JSON Schema of the fixture document. Every
// field is optional; unknown fields are rejected like DecodeFixture does.
func FixtureSchema() ([]byte, error) {
	r := &jsonschema.Reflector{RequiredFromJSONSchemaTags: true}
	schema := r.Reflect(&Fixture{})
	schema.Title = "RAM fixture"

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, errs.Wrap(err, "encode fixture schema")
	}
	return out, nil
}
