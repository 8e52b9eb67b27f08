package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const kindExtensionKey = "x-editform-kind"

var requestMediaTypes = []string{
	"multipart/form-data",
	"application/x-www-form-urlencoded",
	"application/json",
}

// FieldsFromOpenAPI extracts the request body properties of operationID from
// an OpenAPI 3 document and converts them into registry fields. Properties
// are returned sorted by name; a property may pin its kind with the
// x-editform-kind extension.
func FieldsFromOpenAPI(ctx context.Context, data []byte, operationID string) ([]Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("schema: openapi document is empty")
	}
	operationID = strings.TrimSpace(operationID)
	if operationID == "" {
		return nil, errors.New("schema: operation id is required")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("schema: load openapi document: %w", err)
	}

	op := findOperation(doc, operationID)
	if op == nil {
		return nil, fmt.Errorf("schema: operation %q not found", operationID)
	}

	body := requestSchema(op)
	if body == nil {
		return nil, fmt.Errorf("schema: operation %q has no request body schema", operationID)
	}

	return fieldsFromObject(body), nil
}

func findOperation(doc *openapi3.T, operationID string) *openapi3.Operation {
	if doc == nil || doc.Paths == nil {
		return nil
	}
	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mime := range requestMediaTypes {
		media := content.Get(mime)
		if media != nil && media.Schema != nil && media.Schema.Value != nil {
			return media.Schema.Value
		}
	}
	return nil
}

func fieldsFromObject(schema *openapi3.Schema) []Field {
	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		_, isRequired := required[name]
		field := Field{
			Name:        name,
			Label:       prop.Title,
			Kind:        kindFromSchema(prop),
			Required:    isRequired,
			Description: prop.Description,
		}
		if prop.Default != nil {
			field.Default = fmt.Sprint(prop.Default)
		}
		if prop.Min != nil {
			field.Min = trimFloat(*prop.Min)
		}
		if prop.Max != nil {
			field.Max = trimFloat(*prop.Max)
		}
		for _, option := range prop.Enum {
			field.Options = append(field.Options, fmt.Sprint(option))
		}
		fields = append(fields, field)
	}
	return fields
}

func kindFromSchema(prop *openapi3.Schema) Kind {
	if raw, ok := prop.Extensions[kindExtensionKey]; ok {
		if kind := Kind(strings.TrimSpace(fmt.Sprint(raw))); kind.Valid() {
			return kind
		}
	}
	if len(prop.Enum) > 0 {
		return KindSelect
	}
	switch {
	case prop.Type.Is(openapi3.TypeBoolean):
		return KindCheckbox
	case prop.Type.Is(openapi3.TypeInteger), prop.Type.Is(openapi3.TypeNumber):
		return KindNumber
	case prop.Type.Is(openapi3.TypeArray):
		return KindList
	case prop.Type.Is(openapi3.TypeObject):
		return KindJSON
	}
	switch prop.Format {
	case "date", "date-time":
		return KindDate
	case "binary":
		return KindFile
	}
	return KindText
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%g", v)
	return strings.TrimSuffix(s, ".0")
}
