package mcp

import (
	"errors"
	"fmt"

	"orderbot/internal/whatsapp"
)

func getStringArg(args map[string]interface{}, key string) string {
	val, ok := args[key]
	if !ok || val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func getIntArg(args map[string]interface{}, key string, fallback int) int {
	val, ok := args[key]
	if !ok {
		return fallback
	}
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func getBoolArg(args map[string]interface{}, key string, fallback bool) bool {
	val, ok := args[key]
	if !ok {
		return fallback
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return fallback
}

func requireArgs(args map[string]interface{}, keys ...string) error {
	for _, k := range keys {
		if getStringArg(args, k) == "" {
			return fmt.Errorf("%s is required", k)
		}
	}
	return nil
}

// sendPayload reports an engine outcome as {success, error, step, retryable}.
func sendPayload(phone string, err error) map[string]interface{} {
	if err == nil {
		return map[string]interface{}{"success": true, "phone": phone}
	}
	payload := map[string]interface{}{
		"success":   false,
		"phone":     phone,
		"error":     err.Error(),
		"retryable": whatsapp.Retryable(err),
	}
	var stepErr *whatsapp.StepError
	if errors.As(err, &stepErr) {
		payload["step"] = stepErr.Step
	}
	return payload
}

func stringSchema(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
