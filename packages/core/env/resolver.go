package env

import (
	"maps"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Resolver interpolates {{name}} references. Names starting with $ read the
// process environment; $uuid and $timestamp are generated per call.
type Resolver struct {
	variables  map[string]string
	unresolved []string
}

func NewResolver(vars map[string]string) *Resolver {
	return &Resolver{variables: maps.Clone(vars)}
}

func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])

		switch expr {
		case "$uuid":
			return uuid.NewString()
		case "$timestamp":
			return time.Now().UTC().Format(time.RFC3339)
		}

		if name, ok := strings.CutPrefix(expr, "$"); ok {
			if val, found := os.LookupEnv(name); found {
				return val
			}
			r.unresolved = append(r.unresolved, expr)
			return match
		}

		if val, ok := r.variables[expr]; ok {
			return val
		}
		r.unresolved = append(r.unresolved, expr)
		return match
	})
}

func (r *Resolver) ResolveAll(values map[string]string) map[string]string {
	if values == nil {
		return nil
	}
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = r.Resolve(v)
	}
	return result
}

// Unresolved lists the references that could not be resolved so far, in the
// order they were met.
func (r *Resolver) Unresolved() []string {
	return append([]string(nil), r.unresolved...)
}
