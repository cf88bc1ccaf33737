package trace

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const recordSchemaURL = "trace.schema.json"

//go:embed trace.schema.json
var recordSchemaSource string

var (
	recordSchemaOnce sync.Once
	recordSchema     *jsonschema.Schema
	recordSchemaErr  error
)

// RecordSchema returns the compiled JSON schema every line of a trace must satisfy.
func RecordSchema() (*jsonschema.Schema, error) {
	recordSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(recordSchemaURL, strings.NewReader(recordSchemaSource)); err != nil {
			recordSchemaErr = fmt.Errorf("failed to load trace schema: %w", err)
			return
		}
		recordSchema, recordSchemaErr = compiler.Compile(recordSchemaURL)
		if recordSchemaErr != nil {
			recordSchemaErr = fmt.Errorf("failed to compile trace schema: %w", recordSchemaErr)
		}
	})
	return recordSchema, recordSchemaErr
}
