package synthesis

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/content_v1.json
var contentSchemaJSON string

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(contentSchemaJSON))
})

// SchemaJSON returns the JSON Schema generated content must satisfy.
func SchemaJSON() string {
	return contentSchemaJSON
}

// ValidateDocument checks a raw JSON document against the content schema.
func ValidateDocument(doc string) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile content schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}
