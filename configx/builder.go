package configx

import (
	"strings"
)

const (
	PriorityDefaults = 0
	PriorityDotEnv   = 10
	PriorityEnv      = 20
	PriorityOverride = 30
)

// Builder assembles a Config from prioritized sources
type Builder struct {
	sources   []Source
	required  []string
	validator func(Config) error
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) WithDefaults(defaults map[string]string) *Builder {
	b.sources = append(b.sources, NewMapSource(defaults, "defaults", PriorityDefaults))
	return b
}

func (b *Builder) FromDotEnv(path string) *Builder {
	b.sources = append(b.sources, NewDotEnvSource(path, PriorityDotEnv))
	return b
}

func (b *Builder) FromEnv(prefix string) *Builder {
	b.sources = append(b.sources, NewEnvSource(prefix, PriorityEnv))
	return b
}

func (b *Builder) FromMap(values map[string]string, name string) *Builder {
	b.sources = append(b.sources, NewMapSource(values, name, PriorityOverride))
	return b
}

// Require lists keys (env style or dotted) that must be non-empty after merge
func (b *Builder) Require(keys ...string) *Builder {
	b.required = append(b.required, keys...)
	return b
}

func (b *Builder) WithValidation(fn func(Config) error) *Builder {
	b.validator = fn
	return b
}

// Build loads every source, lowest priority first, and checks requirements
func (b *Builder) Build() (Config, error) {
	sources := append([]Source(nil), b.sources...)
	sortSourcesByPriority(sources)

	cfg := &configuration{values: make(map[string]string)}
	for _, src := range sources {
		vals, err := src.Load()
		if err != nil {
			return nil, configErrors.NewWithCause(ErrSourceFailed, err).WithDetail("source", src.Name())
		}
		for k, v := range vals {
			cfg.values[k] = v
		}
	}

	var missing []string
	for _, key := range b.required {
		if !cfg.Get(key).IsSet() {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, configErrors.New(ErrMissingKeys).
			WithDetail("keys", strings.Join(missing, ","))
	}

	if b.validator != nil {
		if err := b.validator(cfg); err != nil {
			return nil, configErrors.NewWithCause(ErrInvalid, err)
		}
	}

	return cfg, nil
}
