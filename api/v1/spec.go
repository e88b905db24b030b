package v1

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var spec []byte

// GetSwagger returns the parsed and validated OpenAPI document of the /api/v1 endpoints.
// Every call returns a fresh copy so callers may change it.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	swagger, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("error loading swagger spec: %w", err)
	}
	if err := swagger.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid swagger spec: %w", err)
	}
	return swagger, nil
}

// RawSpec returns the embedded document as written.
func RawSpec() []byte {
	return spec
}
