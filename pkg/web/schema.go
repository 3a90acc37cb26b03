package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const maxJSONBody = 1 << 20

const credentialSchema = `{
	"type": "object",
	"properties": {
		"key": {"type": "string"}
	},
	"required": ["key"],
	"additionalProperties": false
}`

const generateSchema = `{
	"type": "object",
	"properties": {
		"member":       {"type": "string", "maxLength": 20000},
		"routine":      {"type": "string", "maxLength": 20000},
		"requirements": {"type": "string", "maxLength": 20000}
	},
	"additionalProperties": false
}`

// schemas holds the compiled request body schemas.
type schemas struct {
	credential *jsonschema.Schema
	generate   *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	c := jsonschema.NewCompiler()
	sources := map[string]string{
		"credential.json": credentialSchema,
		"generate.json":   generateSchema,
	}
	for name, src := range sources {
		var doc interface{}
		if err := json.Unmarshal([]byte(src), &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON schema %s: %w", name, err)
		}
		if err := c.AddResource(name, doc); err != nil {
			return nil, fmt.Errorf("adding JSON schema %s: %w", name, err)
		}
	}

	cred, err := c.Compile("credential.json")
	if err != nil {
		return nil, fmt.Errorf("compiling JSON schema: %w", err)
	}
	gen, err := c.Compile("generate.json")
	if err != nil {
		return nil, fmt.Errorf("compiling JSON schema: %w", err)
	}
	return &schemas{credential: cred, generate: gen}, nil
}

// errInvalidBody marks a request body that is not JSON or does not match
// its schema.
var errInvalidBody = errors.New("invalid request body")

// decodeBody reads a JSON body, validates it against sch and decodes it
// into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, sch *jsonschema.Schema, dst interface{}) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: not valid JSON: %v", errInvalidBody, err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}
