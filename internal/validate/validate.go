// Package validate provides struct validation using struct tags.
//
// Usage:
//
//	type Inquiry struct {
//	    Name  string `json:"name" validate:"required,min=2,max=100"`
//	    Email string `json:"email" validate:"required,email"`
//	}
//
//	v := validate.New()
//	if err := v.Struct(inq); err != nil {
//	    for _, e := range err.(validate.Errors) {
//	        fmt.Printf("%s: %s\n", e.Field, e.Message)
//	    }
//	}
package validate

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Validator validates struct fields using tags.
type Validator struct {
	tagName  string
	rules    map[string]RuleFunc
	messages *MessageProvider
	mu       sync.RWMutex
}

// RuleFunc is a validation rule function. It receives the field value and
// the parameter (if any). It returns an error message key if validation
// fails, empty string if valid.
type RuleFunc func(value any, param string) string

// New creates a new validator with the built-in rules.
func New() *Validator {
	v := &Validator{
		tagName:  "validate",
		rules:    make(map[string]RuleFunc),
		messages: DefaultMessages(),
	}
	v.registerBuiltinRules()
	return v
}

// RegisterRule registers a custom validation rule.
func (v *Validator) RegisterRule(name string, fn RuleFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules[name] = fn
}

// Struct validates a struct using its validate tags.
// Field names in errors come from the json tag when present.
func (v *Validator) Struct(s any) error {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("validate: expected struct, got %s", val.Kind())
	}

	errs := v.validateStruct(val)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Var validates a single variable against a tag, e.g. "required,email".
func (v *Validator) Var(value any, tag string) error {
	errs := v.validateValue(reflect.ValueOf(value), "value", tag)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *Validator) validateStruct(val reflect.Value) Errors {
	var errs Errors
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldName := field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" && parts[0] != "-" {
				fieldName = parts[0]
			}
		}

		tag := field.Tag.Get(v.tagName)
		errs = append(errs, v.validateValue(val.Field(i), fieldName, tag)...)
	}

	return errs
}

func (v *Validator) validateValue(val reflect.Value, fieldName, tag string) Errors {
	if tag == "" || tag == "-" {
		return nil
	}

	var errs Errors
	rules := parseTag(tag)

	// omitempty: skip remaining rules when the value is empty
	for _, r := range rules {
		if r.name == "omitempty" && isEmpty(val) {
			return nil
		}
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	for _, rule := range rules {
		if rule.name == "omitempty" {
			continue
		}

		ruleFn, ok := v.rules[rule.name]
		if !ok {
			continue
		}

		var value any
		if val.IsValid() && val.CanInterface() {
			value = val.Interface()
		}

		if msgKey := ruleFn(value, rule.param); msgKey != "" {
			errs = append(errs, &Error{
				Field:   fieldName,
				Rule:    rule.name,
				Param:   rule.param,
				Value:   value,
				Message: v.messages.Get(msgKey, fieldName, rule.param),
			})
		}
	}

	return errs
}

// rule represents a parsed validation rule.
type rule struct {
	name  string
	param string
}

// parseTag parses a validation tag into rules.
func parseTag(tag string) []rule {
	var rules []rule
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r := rule{}
		if idx := strings.Index(part, "="); idx != -1 {
			r.name = part[:idx]
			r.param = part[idx+1:]
		} else {
			r.name = part
		}
		rules = append(rules, r)
	}
	return rules
}

// isEmpty checks if a value is empty.
func isEmpty(val reflect.Value) bool {
	if !val.IsValid() {
		return true
	}
	switch val.Kind() {
	case reflect.String:
		return val.String() == ""
	case reflect.Bool:
		return !val.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return val.Int() == 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return val.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return val.IsNil()
	}
	return false
}

// Error represents a validation error.
type Error struct {
	Field   string
	Rule    string
	Param   string
	Value   any
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errors is a collection of validation errors.
type Errors []*Error

func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Message)
	}
	return strings.Join(msgs, "; ")
}

// FieldErrors returns all errors for a specific field.
func (e Errors) FieldErrors(field string) Errors {
	var result Errors
	for _, err := range e {
		if err.Field == field {
			result = append(result, err)
		}
	}
	return result
}

// ToMap converts errors to a map of field -> messages.
func (e Errors) ToMap() map[string][]string {
	result := make(map[string][]string)
	for _, err := range e {
		result[err.Field] = append(result[err.Field], err.Message)
	}
	return result
}

// First returns the first error or nil.
func (e Errors) First() *Error {
	if len(e) > 0 {
		return e[0]
	}
	return nil
}
