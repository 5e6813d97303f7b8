package configx

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/crmturbo/errx"
)

var (
	configErrors = errx.NewRegistry("CONFIG")

	ErrSourceFailed = configErrors.Register("SOURCE_FAILED", errx.TypeInternal, 500, "Failed to load configuration source")
	ErrMissingKeys  = configErrors.Register("MISSING_KEYS", errx.TypeValidation, 500, "Required configuration is missing")
	ErrInvalid      = configErrors.Register("INVALID", errx.TypeValidation, 500, "Configuration is invalid")
)

// Config is a read-only view over merged sources.
// Keys are dotted and lower case: EVOLUTION_API_URL is read as "evolution.api.url".
type Config interface {
	Get(key string) Value
	Has(key string) bool
	Keys() []string
}

// Source provides a flat set of dotted keys
type Source interface {
	Load() (map[string]string, error)
	Name() string
	// Priority orders sources; higher values override lower ones
	Priority() int
}

type configuration struct {
	values map[string]string
}

// NormalizeKey turns an environment style name into a dotted key
func NormalizeKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", ".")
}

func (c *configuration) Get(key string) Value {
	v, ok := c.values[NormalizeKey(key)]
	return value{key: key, raw: v, set: ok}
}

func (c *configuration) Has(key string) bool {
	_, ok := c.values[NormalizeKey(key)]
	return ok
}

func (c *configuration) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value wraps one raw setting with typed accessors
type Value interface {
	IsSet() bool
	AsString() string
	AsStringDefault(def string) string
	AsInt() int
	AsIntDefault(def int) int
	AsBool() bool
	AsBoolDefault(def bool) bool
	AsDuration() time.Duration
	AsDurationDefault(def time.Duration) time.Duration
	AsStringSlice() []string
}

type value struct {
	key string
	raw string
	set bool
}

func (v value) IsSet() bool { return v.set && v.raw != "" }

func (v value) AsString() string { return v.raw }

func (v value) AsStringDefault(def string) string {
	if !v.IsSet() {
		return def
	}
	return v.raw
}

func (v value) AsInt() int { return v.AsIntDefault(0) }

func (v value) AsIntDefault(def int) int {
	if !v.IsSet() {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v.raw))
	if err != nil {
		return def
	}
	return i
}

func (v value) AsBool() bool { return v.AsBoolDefault(false) }

func (v value) AsBoolDefault(def bool) bool {
	if !v.IsSet() {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v.raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func (v value) AsDuration() time.Duration { return v.AsDurationDefault(0) }

// AsDurationDefault accepts Go durations ("30s") or plain seconds ("30")
func (v value) AsDurationDefault(def time.Duration) time.Duration {
	if !v.IsSet() {
		return def
	}
	raw := strings.TrimSpace(v.raw)
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// AsStringSlice splits a comma separated value
func (v value) AsStringSlice() []string {
	if !v.IsSet() {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v.raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (v value) String() string {
	return fmt.Sprintf("%s=%s", v.key, v.raw)
}
