package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// FunctionSchema describes a tool in the form the MCP tools/list response
// expects: a name, a description and a JSON Schema for the arguments object.
type FunctionSchema struct {
	// Name is the tool name.
	Name string `json:"name"`
	// Description is a description of what the tool does.
	Description string `json:"description"`
	// Parameters is the schema for the arguments object.
	Parameters ValueSchema `json:"parameters"`
}

// ValueSchema is a subset of JSON Schema covering the shapes CheckMK tool
// arguments use.
type ValueSchema struct {
	// Type is the data type ("string", "integer", "number", "boolean", "object", "array").
	Type string `json:"type,omitempty"`
	// Description explains the value or field.
	Description string `json:"description,omitempty"`
	// Items is the element schema when Type is "array".
	Items *ValueSchema `json:"items,omitempty"`
	// Properties holds field schemas when Type is "object". A pointer
	// distinguishes "no map" from "empty map".
	Properties *map[string]ValueSchema `json:"properties,omitempty"`
	// AdditionalProperties is a bool or a ValueSchema governing extra object fields.
	AdditionalProperties any `json:"additionalProperties,omitempty"`
	// Required lists mandatory property names when Type is "object".
	Required []string `json:"required,omitempty"`
	// Enum restricts a string value to a fixed set of spellings.
	Enum []string `json:"enum,omitempty"`
}

// generateSchema builds a tool schema from the handler's params struct type.
func generateSchema(name, description string, typ reflect.Type) FunctionSchema {
	return FunctionSchema{
		Name:        name,
		Description: description,
		Parameters:  generateObjectSchema(typ),
	}
}

func fieldTypeToJSONSchema(t reflect.Type) ValueSchema {
	switch t.Kind() {
	case reflect.String:
		return ValueSchema{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ValueSchema{Type: "integer"}
	case reflect.Bool:
		return ValueSchema{Type: "boolean"}
	case reflect.Float32, reflect.Float64:
		return ValueSchema{Type: "number"}
	case reflect.Slice, reflect.Array:
		if t == jsonRawMessageType {
			// Raw JSON fields accept any value shape; rule_config is the
			// prime example.
			return ValueSchema{}
		}
		itemSchema := fieldTypeToJSONSchema(t.Elem())
		return ValueSchema{Type: "array", Items: &itemSchema}
	case reflect.Map:
		additionalPropertiesSchema := fieldTypeToJSONSchema(t.Elem())
		return ValueSchema{Type: "object", AdditionalProperties: additionalPropertiesSchema}
	case reflect.Struct:
		return generateObjectSchema(t)
	case reflect.Ptr:
		return fieldTypeToJSONSchema(t.Elem())
	case reflect.Interface:
		// any fields accept any value shape.
		return ValueSchema{}
	default:
		panic("unsupported type: " + t.Kind().String())
	}
}

func generateObjectSchema(typ reflect.Type) ValueSchema {
	properties := make(map[string]ValueSchema)
	required := []string{}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		parts := strings.Split(jsonTag, ",")
		fieldName := field.Name
		if parts[0] != "" {
			fieldName = parts[0]
		}

		fieldSchema := fieldTypeToJSONSchema(field.Type)
		if description := field.Tag.Get("description"); description != "" {
			fieldSchema.Description = description
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			fieldSchema.Enum = strings.Split(enum, ",")
		}
		properties[fieldName] = fieldSchema
		if len(parts) == 1 || (len(parts) > 1 && parts[1] != "omitempty") {
			required = append(required, fieldName)
		}
	}
	return ValueSchema{
		Type:       "object",
		Properties: &properties,
		Required:   required,
	}
}

// validateJSON checks that jsonData conforms to the tool's argument schema.
func validateJSON(schema *FunctionSchema, jsonData json.RawMessage) error {
	return validateParameters(schema.Parameters, jsonData)
}

func validateParameters(schema ValueSchema, jsonData json.RawMessage) error {
	if schema.Type != "object" || schema.Properties == nil {
		return errors.New("schema error: received an invalid object schema")
	}

	var dataMap map[string]any
	if err := json.Unmarshal(jsonData, &dataMap); err != nil {
		return errors.New("invalid JSON format")
	}

	for key, val := range dataMap {
		fieldSchema, found := (*schema.Properties)[key]
		if found {
			if err := validateField(fieldSchema, val); err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			continue
		}

		switch ap := schema.AdditionalProperties.(type) {
		case nil:
			// Unknown fields are tolerated unless the schema says otherwise.
			continue
		case bool:
			if !ap {
				return fmt.Errorf("additional property %q not allowed", key)
			}
		case ValueSchema:
			if err := validateField(ap, val); err != nil {
				return fmt.Errorf("additional property %q: %w", key, err)
			}
		default:
			return fmt.Errorf("invalid schema: AdditionalProperties has unexpected type %T", schema.AdditionalProperties)
		}
	}

	for _, field := range schema.Required {
		if _, exists := dataMap[field]; !exists {
			return fmt.Errorf("missing required field: %q", field)
		}
	}

	return nil
}

func validateField(fieldSchema ValueSchema, data any) error {
	dataType := fieldSchema.Type
	if dataType == "" {
		// An empty schema accepts any value (raw JSON passthrough fields).
		return nil
	}

	switch dataType {
	case "integer":
		num, ok := data.(float64)
		if !ok || num != float64(int(num)) {
			return fmt.Errorf("type mismatch: expected integer, got %T", data)
		}
	case "number":
		if _, ok := data.(float64); !ok {
			return fmt.Errorf("type mismatch: expected number, got %T", data)
		}
	case "string":
		s, ok := data.(string)
		if !ok {
			return fmt.Errorf("type mismatch: expected string, got %T", data)
		}
		if len(fieldSchema.Enum) > 0 {
			for _, allowed := range fieldSchema.Enum {
				if s == allowed {
					return nil
				}
			}
			return fmt.Errorf("value %q not in allowed set %v", s, fieldSchema.Enum)
		}
	case "boolean":
		if _, ok := data.(bool); !ok {
			return fmt.Errorf("type mismatch: expected boolean, got %T", data)
		}
	case "array":
		items, ok := data.([]any)
		if !ok {
			return fmt.Errorf("type mismatch: expected array, got %T", data)
		}
		if fieldSchema.Items == nil {
			return errors.New("schema error: missing item schema for array")
		}
		for _, item := range items {
			if err := validateField(*fieldSchema.Items, item); err != nil {
				return err
			}
		}
	case "object":
		properties, ok := data.(map[string]any)
		if !ok {
			return fmt.Errorf("type mismatch: expected object, got %T", data)
		}
		if fieldSchema.Properties == nil {
			// Free-form objects (host attributes, rule conditions).
			return nil
		}
		jsonData, err := json.Marshal(properties)
		if err != nil {
			return errors.New("failed to marshal object data for validation")
		}
		return validateParameters(fieldSchema, json.RawMessage(jsonData))
	default:
		return fmt.Errorf("unsupported type: %s", dataType)
	}
	return nil
}
