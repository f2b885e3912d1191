package types

// Property is a JSON schema property for a tool parameter.
type Property struct {
	Name        string
	Type        string
	Description string
}

// NewSchema builds a JSON object schema from properties.
func NewSchema(required []string, properties ...Property) map[string]any {
	props := make(map[string]any, len(properties))
	for _, p := range properties {
		props[p.Name] = map[string]any{"type": p.Type, "description": p.Description}
	}
	return map[string]any{"type": "object", "required": required, "properties": props}
}
