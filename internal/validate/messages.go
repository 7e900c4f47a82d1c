// internal/validate/messages.go
package validate

import (
	"fmt"
	"strings"
	"sync"
)

// MessageProvider maps message keys to user-facing messages.
// Messages may contain {field} and {param} placeholders.
type MessageProvider struct {
	mu       sync.RWMutex
	messages map[string]string
}

// NewMessageProvider creates an empty message provider.
func NewMessageProvider() *MessageProvider {
	return &MessageProvider{messages: make(map[string]string)}
}

// DefaultMessages returns a message provider with the default English messages.
func DefaultMessages() *MessageProvider {
	m := NewMessageProvider()
	for k, v := range defaultEnglishMessages {
		m.messages[k] = v
	}
	return m
}

// AddMessage adds or overrides a message for a key.
func (m *MessageProvider) AddMessage(key, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[key] = message
}

// Get retrieves a formatted message for a key.
func (m *MessageProvider) Get(key, field, param string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if msg, ok := m.messages[key]; ok {
		msg = strings.ReplaceAll(msg, "{field}", field)
		msg = strings.ReplaceAll(msg, "{param}", param)
		return msg
	}
	return fmt.Sprintf("%s validation failed for %s", key, field)
}

var defaultEnglishMessages = map[string]string{
	"required": "{field} is required",
	"email":    "{field} must be a valid email address",
	"min":      "{field} must be at least {param}",
	"max":      "{field} must be at most {param}",
	"date":     "{field} must be a valid date",
	"e164":     "{field} must be a valid E.164 phone number",
}
