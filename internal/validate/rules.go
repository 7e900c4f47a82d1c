// internal/validate/rules.go
package validate

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// The built-in rules cover what a booking inquiry needs: presence, length
// bounds, email/phone formats, and an ISO event date.
func (v *Validator) registerBuiltinRules() {
	v.rules["required"] = ruleRequired
	v.rules["email"] = ruleEmail
	v.rules["min"] = ruleMin
	v.rules["max"] = ruleMax
	v.rules["date"] = ruleDate
	v.rules["e164"] = ruleE164
}

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	e164Regex  = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
)

func ruleRequired(value any, param string) string {
	if value == nil {
		return "required"
	}
	val := reflect.ValueOf(value)
	switch val.Kind() {
	case reflect.String:
		if strings.TrimSpace(val.String()) == "" {
			return "required"
		}
	case reflect.Slice, reflect.Map, reflect.Array:
		if val.Len() == 0 {
			return "required"
		}
	case reflect.Ptr, reflect.Interface:
		if val.IsNil() {
			return "required"
		}
	}
	return ""
}

func ruleEmail(value any, param string) string {
	s, ok := value.(string)
	if !ok || !emailRegex.MatchString(strings.TrimSpace(s)) {
		return "email"
	}
	return ""
}

// ruleMin: for strings the parameter is a minimum rune count, for numbers a
// minimum value.
func ruleMin(value any, param string) string {
	if !compareLen(value, param, func(have, want int64) bool { return have >= want }) {
		return "min"
	}
	return ""
}

func ruleMax(value any, param string) string {
	if !compareLen(value, param, func(have, want int64) bool { return have <= want }) {
		return "max"
	}
	return ""
}

func compareLen(value any, param string, cmp func(have, want int64) bool) bool {
	want, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return true // bad tag parameter; don't fail user input for it
	}
	if value == nil {
		return cmp(0, want)
	}
	val := reflect.ValueOf(value)
	switch val.Kind() {
	case reflect.String:
		return cmp(int64(utf8.RuneCountInString(val.String())), want)
	case reflect.Slice, reflect.Map, reflect.Array:
		return cmp(int64(val.Len()), want)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp(val.Int(), want)
	case reflect.Float32, reflect.Float64:
		return cmp(int64(val.Float()), want)
	}
	return true
}

// ruleDate accepts an ISO date (2006-01-02).
func ruleDate(value any, param string) string {
	s, ok := value.(string)
	if !ok {
		return "date"
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
		return "date"
	}
	return ""
}

func ruleE164(value any, param string) string {
	s, ok := value.(string)
	if !ok || !e164Regex.MatchString(strings.TrimSpace(s)) {
		return "e164"
	}
	return ""
}
