package tool

import (
	"encoding/json"
	"fmt"
	"strings"

	"webchat-bridge/internal/domain/entity"
)

// decode copies params into dst through JSON so that each tool works with a
// typed request. Wrong types are reported as ErrInvalidParams.
func decode(params entity.Params, dst any) error {
	if params == nil {
		params = entity.Params{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidParams, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidParams, err)
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", entity.ErrInvalidParams, field)
	}
	return nil
}

// oneOf returns def for an empty value and rejects values outside allowed.
func oneOf(field, value, def string, allowed []string) (string, error) {
	if value == "" {
		return def, nil
	}
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: %s must be one of %s, got %q",
		entity.ErrInvalidParams, field, strings.Join(allowed, ", "), value)
}

func objectSchema(properties map[string]interface{}, requiredFields ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(requiredFields) > 0 {
		schema["required"] = requiredFields
	}
	return schema
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func enumProp(description, def string, values []string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
		"enum":        values,
		"default":     def,
	}
}
