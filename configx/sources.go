package configx

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// EnvSource reads the process environment
type EnvSource struct {
	prefix   string
	priority int
	environ  func() []string
}

// NewEnvSource reads variables starting with prefix; the prefix is stripped
func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{prefix: prefix, priority: priority, environ: os.Environ}
}

func (s *EnvSource) Load() (map[string]string, error) {
	result := make(map[string]string)
	for _, kv := range s.environ() {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, s.prefix) {
			continue
		}
		result[NormalizeKey(strings.TrimPrefix(name, s.prefix))] = val
	}
	return result, nil
}

func (s *EnvSource) Name() string  { return "env" }
func (s *EnvSource) Priority() int { return s.priority }

// DotEnvSource reads a .env file. A missing file loads nothing.
type DotEnvSource struct {
	path     string
	priority int
}

func NewDotEnvSource(path string, priority int) *DotEnvSource {
	return &DotEnvSource{path: path, priority: priority}
}

func (s *DotEnvSource) Load() (map[string]string, error) {
	vars, err := godotenv.Read(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	result := make(map[string]string, len(vars))
	for k, v := range vars {
		result[NormalizeKey(k)] = v
	}
	return result, nil
}

func (s *DotEnvSource) Name() string  { return "dotenv:" + s.path }
func (s *DotEnvSource) Priority() int { return s.priority }

// MapSource serves fixed values, used for defaults and tests
type MapSource struct {
	name     string
	values   map[string]string
	priority int
}

func NewMapSource(values map[string]string, name string, priority int) *MapSource {
	return &MapSource{name: name, values: values, priority: priority}
}

func (s *MapSource) Load() (map[string]string, error) {
	result := make(map[string]string, len(s.values))
	for k, v := range s.values {
		result[NormalizeKey(k)] = v
	}
	return result, nil
}

func (s *MapSource) Name() string  { return s.name }
func (s *MapSource) Priority() int { return s.priority }

func sortSourcesByPriority(sources []Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority() < sources[j].Priority()
	})
}
