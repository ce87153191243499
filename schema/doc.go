// Package schema derives JSON Schemas for tool inputs from Go types and
// validates tool arguments against them.
//
// Field names follow the json tag. The jsonschema tag adds constraints:
//
//	type ReadInput struct {
//	    Path     string `json:"path" jsonschema:"required,description=Path below the root"`
//	    MaxBytes int    `json:"maxBytes" jsonschema:"minimum=1,maximum=1048576"`
//	    Encoding string `json:"encoding" jsonschema:"enum=utf-8|latin1"`
//	}
//
//	s, err := schema.Generate(ReadInput{})
//
// Schemas declared by hand are loaded with Parse. Validate reports every
// violation at once as ValidationErrors; a null value satisfies any type,
// and only the parent's required list decides whether a field may be
// missing.
package schema
