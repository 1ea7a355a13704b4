package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &schema))

	assert.Equal(t, "ftrack configuration", schema["title"])
	assert.Equal(t, false, schema["additionalProperties"])

	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	assert.ElementsMatch(t, []string{"api", "session", "storage", "logging"}, keys)

	logging := props["logging"].(map[string]interface{})
	assert.Contains(t, logging["properties"], "level")

	storage := props["storage"].(map[string]interface{})
	backend := storage["properties"].(map[string]interface{})["backend"].(map[string]interface{})
	assert.ElementsMatch(t, []interface{}{"file", "sqlite", "redis", "memory"}, backend["enum"])
}

func TestSchemaValidatorAcceptsDefaults(t *testing.T) {
	v, err := NewSchemaValidator()
	require.NoError(t, err)
	assert.NoError(t, v.Validate(Default()))
}

func TestSchemaValidatorReportsRootErrors(t *testing.T) {
	v, err := NewSchemaValidator()
	require.NoError(t, err)

	doc := map[string]interface{}{}
	data, err := json.Marshal(Default())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	doc["bogus"] = true

	err = v.Validate(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "- #:")
	assert.Contains(t, err.Error(), "bogus")
}
