package env

import (
	"os"
	"strings"
)

// Prefix marks system environment variables that override configuration.
const Prefix = "REQVERIFY_"

// LoadSystemEnv returns the process environment. With a non-empty prefix only
// matching variables are kept and the prefix is stripped from their names.
func LoadSystemEnv(prefix string) map[string]string {
	result := make(map[string]string)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
			continue
		}
		if name, found := strings.CutPrefix(key, prefix); found && name != "" {
			result[name] = value
		}
	}
	return result
}

// MergeVariables merges sources left to right, later sources winning.
func MergeVariables(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}
