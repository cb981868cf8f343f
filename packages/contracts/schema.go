package contracts

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Kind names a response contract.
type Kind string

const (
	KindUserPage    Kind = "user-page"
	KindSingleUser  Kind = "single-user"
	KindUserCreated Kind = "user-created"
	KindUserUpdated Kind = "user-updated"
)

const userSchema = `{
	"type": "object",
	"required": ["id", "email", "first_name", "last_name", "avatar"],
	"properties": {
		"id": {"type": "integer", "minimum": 1},
		"email": {"type": "string", "format": "email"},
		"first_name": {"type": "string"},
		"last_name": {"type": "string"},
		"avatar": {"type": "string"}
	}
}`

const supportSchema = `{
	"type": "object",
	"properties": {
		"url": {"type": "string"},
		"text": {"type": "string"}
	}
}`

var schemas = map[Kind]string{
	KindUserPage: `{
		"type": "object",
		"required": ["page", "per_page", "total", "total_pages", "data"],
		"properties": {
			"page": {"type": "integer", "minimum": 1},
			"per_page": {"type": "integer", "minimum": 1},
			"total": {"type": "integer", "minimum": 0},
			"total_pages": {"type": "integer", "minimum": 0},
			"data": {"type": "array", "items": ` + userSchema + `},
			"support": ` + supportSchema + `
		}
	}`,
	KindSingleUser: `{
		"type": "object",
		"properties": {
			"data": ` + userSchema + `,
			"support": ` + supportSchema + `
		}
	}`,
	KindUserCreated: `{
		"type": "object",
		"required": ["name", "job"],
		"properties": {
			"name": {"type": "string"},
			"job": {"type": "string"},
			"id": {"type": "string"},
			"createdAt": {"type": "string"}
		}
	}`,
	KindUserUpdated: `{
		"type": "object",
		"required": ["name", "job"],
		"properties": {
			"name": {"type": "string"},
			"job": {"type": "string"},
			"updatedAt": {"type": "string"}
		}
	}`,
}

// SchemaError lists the violations found in a response body.
type SchemaError struct {
	Kind       Kind
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s contract violated: %s", e.Kind, strings.Join(e.Violations, "; "))
}

// Schema returns the JSON Schema source for kind.
func Schema(kind Kind) (string, bool) {
	s, ok := schemas[kind]
	return s, ok
}

// Validate checks body against the schema registered for kind.
func Validate(kind Kind, body []byte) error {
	schema, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("unknown contract %q", kind)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(body),
	)
	if err != nil {
		return fmt.Errorf("validating %s contract: %w", kind, err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return &SchemaError{Kind: kind, Violations: violations}
}
