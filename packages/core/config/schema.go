package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is the JSON schema configuration files are validated against.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "endpoint": {"type": "string"},
    "apiToken": {"type": "string"},
    "apiTokenCredentialId": {"type": "string"},
    "timeout": {"type": "integer", "minimum": 0},
    "rateLimit": {"type": "number", "minimum": 0},
    "validateSSL": {"type": "boolean"},
    "proxy": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "host": {"type": "string"},
        "port": {"type": "integer", "minimum": 0, "maximum": 65535},
        "noProxyHost": {"type": "string"},
        "username": {"type": "string"},
        "password": {"type": "string"}
      }
    },
    "credentials": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "file": {"type": "string"},
        "database": {"type": "string"},
        "envPrefix": {"type": "string"},
        "watch": {"type": "boolean"}
      }
    },
    "environments": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["variables"],
        "properties": {
          "name": {"type": "string"},
          "variables": {
            "type": "object",
            "additionalProperties": {"type": "string"}
          }
        }
      }
    },
    "envFile": {"type": "string"},
    "verbose": {"type": "boolean"},
    "noColor": {"type": "boolean"}
  }
}`

// Validate checks a JSON configuration document against Schema.
func Validate(doc []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(Schema)
	documentLoader := gojsonschema.NewBytesLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}
