package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ProviderError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if desc := e.description(); desc != "" {
		return fmt.Sprintf("yookassa error: %s: %s", e.Status, desc)
	}
	return fmt.Sprintf("yookassa error: %s", e.Status)
}

// description prefers the provider's own error description over the raw body.
func (e *ProviderError) description() string {
	var body struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(e.Body), &body); err == nil && body.Description != "" {
		if body.Code != "" {
			return body.Code + ": " + body.Description
		}
		return body.Description
	}
	return strings.TrimSpace(e.Body)
}
