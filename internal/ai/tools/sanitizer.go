package tools

import (
	"regexp"

	"nutriai/internal/ai/llm"
)

var invalidChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeName replaces characters that function-calling APIs reject.
func SanitizeName(tool string) string {
	return invalidChars.ReplaceAllString(tool, "_")
}

// LLMTools converts the registered definitions into model tool declarations.
func (r *Registry) LLMTools() []llm.Tool {
	defs := r.List()
	out := make([]llm.Tool, 0, len(defs))

	for _, def := range defs {
		schema := llm.Schema{
			Type:       "object",
			Properties: map[string]interface{}{},
		}
		for _, param := range def.Parameters {
			prop := map[string]interface{}{
				"type": param.Type.JSONType(),
			}
			if param.Description != "" {
				prop["description"] = param.Description
			}
			if len(param.Enum) > 0 {
				prop["enum"] = param.Enum
			}
			schema.Properties[param.Name] = prop
			if param.Required {
				schema.Required = append(schema.Required, param.Name)
			}
		}
		out = append(out, llm.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: schema,
		})
	}

	return out
}
