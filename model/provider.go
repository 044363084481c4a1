package model

import (
	"encoding/json"

	"github.com/hupe1980/agentloop/core"
)

// ToolResultText renders a function response as the text a provider adapter
// feeds back to the model. Failed calls surface as a small JSON error object
// so the model can recognize and react to the failure.
func ToolResultText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		data, err := json.Marshal(map[string]string{"error": fr.Error})
		if err == nil {
			return string(data)
		}
		return "error: " + fr.Error
	}
	return fr.Result
}

// SystemText builds the provider-facing system prompt: the agent instructions
// plus, when a final output schema is declared, a directive to answer with a
// matching JSON object.
func SystemText(req Request) string {
	if req.OutputSchema == nil {
		return req.Instructions
	}
	schema, err := json.Marshal(req.OutputSchema)
	if err != nil {
		return req.Instructions
	}
	return req.Instructions + "\n\nRespond with a single JSON object matching this JSON schema:\n" + string(schema)
}
