package env

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolver_Resolve(t *testing.T) {
	t.Setenv("REQVERIFY_TEST_TOKEN", "t0ken")

	tests := []struct {
		name       string
		input      string
		variables  map[string]string
		expected   string
		unresolved []string
	}{
		{"no references", "application/json", nil, "application/json", nil},
		{"variable", "Bearer {{token}}", map[string]string{"token": "abc"}, "Bearer abc", nil},
		{"spaces inside braces", "{{ token }}", map[string]string{"token": "abc"}, "abc", nil},
		{"environment", "Bearer {{$REQVERIFY_TEST_TOKEN}}", nil, "Bearer t0ken", nil},
		{"missing variable", "{{token}}", nil, "{{token}}", []string{"token"}},
		{"missing environment", "{{$REQVERIFY_NOT_SET}}", nil, "{{$REQVERIFY_NOT_SET}}", []string{"$REQVERIFY_NOT_SET"}},
		{"mixed", "{{a}}-{{b}}", map[string]string{"a": "1"}, "1-{{b}}", []string{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.variables)
			assert.Equal(t, tt.expected, r.Resolve(tt.input))
			assert.Equal(t, tt.unresolved, r.Unresolved())
		})
	}
}

func TestResolver_Generated(t *testing.T) {
	r := NewResolver(nil)

	id := r.Resolve("{{$uuid}}")
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, r.Resolve("{{$uuid}}"))

	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T`, r.Resolve("{{$timestamp}}"))
	assert.Empty(t, r.Unresolved())
}

func TestResolver_ResolveAll(t *testing.T) {
	r := NewResolver(map[string]string{"env": "staging"})
	got := r.ResolveAll(map[string]string{"X-Env": "{{env}}", "Accept": "application/json"})
	assert.Equal(t, map[string]string{"X-Env": "staging", "Accept": "application/json"}, got)
	assert.Nil(t, r.ResolveAll(nil))
}

func TestResolver_CopiesVariables(t *testing.T) {
	vars := map[string]string{"a": "1"}
	r := NewResolver(vars)
	vars["a"] = "2"
	assert.Equal(t, "1", r.Resolve("{{a}}"))
}

func TestLoadSystemEnv(t *testing.T) {
	t.Setenv("REQVERIFY_BASE_URL", "https://reqres.in")
	t.Setenv("REQVERIFY_", "ignored")
	t.Setenv("OTHER_BASE_URL", "nope")

	vars := LoadSystemEnv(Prefix)
	assert.Equal(t, "https://reqres.in", vars["BASE_URL"])
	assert.NotContains(t, vars, "")
	assert.NotContains(t, vars, "OTHER_BASE_URL")

	all := LoadSystemEnv("")
	assert.Equal(t, "nope", all["OTHER_BASE_URL"])
}

func TestMergeVariables(t *testing.T) {
	got := MergeVariables(
		map[string]string{"A": "1", "B": "1"},
		nil,
		map[string]string{"B": "2"},
	)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, got)
}
