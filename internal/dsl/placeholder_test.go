package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePlaceholdersExactMatch(t *testing.T) {
	vars := map[string]interface{}{"count": float64(3), "name": "alice"}
	params := map[string]interface{}{
		"n":       "${count}",
		"greeting": "hello ${name}", // not an exact match: left untouched
		"literal": "plain",
	}

	resolved := ResolvePlaceholders(params, vars)
	assert.Equal(t, float64(3), resolved["n"])
	assert.Equal(t, "hello ${name}", resolved["greeting"])
	assert.Equal(t, "plain", resolved["literal"])
}

func TestResolvePlaceholdersUnknownLeftLiteral(t *testing.T) {
	params := map[string]interface{}{"x": "${missing}"}
	resolved := ResolvePlaceholders(params, map[string]interface{}{})
	assert.Equal(t, "${missing}", resolved["x"])
}

func TestResolvePlaceholdersDottedPath(t *testing.T) {
	vars := map[string]interface{}{
		"user": map[string]interface{}{"name": "bob"},
	}
	params := map[string]interface{}{"n": "${user.name}"}
	resolved := ResolvePlaceholders(params, vars)
	assert.Equal(t, "bob", resolved["n"])
}
