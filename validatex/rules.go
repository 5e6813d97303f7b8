package validatex

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidationFunc reports whether value satisfies a rule with the given param
type ValidationFunc func(value any, param string) bool

var builtinValidationFuncs = map[string]ValidationFunc{
	"required": validateRequired,
	"url":      validateURL,
	"min":      validateMin,
	"max":      validateMax,
	"oneof":    validateOneOf,
	"pattern":  validatePattern,
	"uuid":     validateUUID,
}

var (
	customMu              sync.RWMutex
	customValidationFuncs = map[string]ValidationFunc{}
	patterns              = map[string]*regexp.Regexp{}
)

// RegisterValidationFunc registers a custom rule
func RegisterValidationFunc(name string, fn ValidationFunc) {
	customMu.Lock()
	defer customMu.Unlock()
	customValidationFuncs[name] = fn
}

// RegisterPattern names a regular expression for use as `pattern=<name>`.
// Expressions are registered by name because tags are comma separated.
func RegisterPattern(name string, re *regexp.Regexp) {
	customMu.Lock()
	defer customMu.Unlock()
	patterns[name] = re
}

func getValidationFunc(name string) (ValidationFunc, bool) {
	customMu.RLock()
	fn, ok := customValidationFuncs[name]
	customMu.RUnlock()
	if ok {
		return fn, true
	}
	fn, ok = builtinValidationFuncs[name]
	return fn, ok
}

func validateRequired(value any, _ string) bool {
	return !isZero(value)
}

func validateURL(value any, _ string) bool {
	str, ok := deref(value).(string)
	if !ok {
		return false
	}
	u, err := url.ParseRequestURI(str)
	return err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https")
}

// length is the rune count of strings, the length of collections
// and the value itself for numbers
func length(value any) (float64, bool) {
	v := reflect.ValueOf(deref(value))
	switch v.Kind() {
	case reflect.String:
		return float64(utf8.RuneCountInString(v.String())), true
	case reflect.Slice, reflect.Map, reflect.Array:
		return float64(v.Len()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

func validateMin(value any, param string) bool {
	limit, err := strconv.ParseFloat(param, 64)
	if err != nil {
		return false
	}
	n, ok := length(value)
	return ok && n >= limit
}

func validateMax(value any, param string) bool {
	limit, err := strconv.ParseFloat(param, 64)
	if err != nil {
		return false
	}
	n, ok := length(value)
	return ok && n <= limit
}

// validateOneOf takes space separated options
func validateOneOf(value any, param string) bool {
	str := fmt.Sprintf("%v", deref(value))
	for _, allowed := range strings.Fields(param) {
		if allowed == str {
			return true
		}
	}
	return false
}

func validatePattern(value any, param string) bool {
	customMu.RLock()
	re, ok := patterns[param]
	customMu.RUnlock()
	if !ok {
		return false
	}
	str, isStr := deref(value).(string)
	return isStr && re.MatchString(str)
}

func validateUUID(value any, _ string) bool {
	str, ok := deref(value).(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(str)
	return err == nil
}
