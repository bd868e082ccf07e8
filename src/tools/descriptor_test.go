package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	json "github.com/Yaswanth-ampolu/productdemo/src/json"
)

func TestDescriptorFlatParameters(t *testing.T) {
	var d Descriptor
	err := json.Unmarshal([]byte(`{
		"name": "readFile",
		"description": "Read a file",
		"parameters": {
			"filePath": {"type": "string", "required": true, "description": "path"},
			"encoding": {"type": "string"}
		}
	}`), &d)
	require.NoError(t, err)
	assert.Equal(t, "readFile", d.Name)
	assert.Equal(t, Parameter{Type: "string", Required: true, Description: "path"}, d.Parameters["filePath"])
	assert.False(t, d.Parameters["encoding"].Required)
	assert.Equal(t, []string{"filePath", "encoding"}, d.ParameterNames())
}

func TestDescriptorSchemaParameters(t *testing.T) {
	var d Descriptor
	err := json.Unmarshal([]byte(`{
		"name": "grep",
		"inputSchema": {
			"type": "object",
			"properties": {"pattern": {"type": "string"}, "path": {"type": "string"}},
			"required": ["pattern"]
		}
	}`), &d)
	require.NoError(t, err)
	assert.True(t, d.Parameters["pattern"].Required)
	assert.False(t, d.Parameters["path"].Required)
}

func TestDescriptorWithoutParameters(t *testing.T) {
	var d Descriptor
	require.NoError(t, json.Unmarshal([]byte(`{"name":"ping","parameters":null}`), &d))
	assert.NotNil(t, d.Parameters)
	assert.Empty(t, d.Parameters)
}

func TestDescriptorInvalidParameters(t *testing.T) {
	var d Descriptor
	err := json.Unmarshal([]byte(`{"name":"bad","parameters":"nope"}`), &d)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	d := Descriptor{Name: "createFile", Parameters: map[string]Parameter{
		"filePath": {Type: "string", Required: true},
		"content":  {Type: "string", Required: true},
		"mode":     {Type: "string"},
	}}
	assert.NoError(t, d.Validate(map[string]any{"filePath": "a", "content": ""}))

	err := d.Validate(map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content, filePath")
}

func TestFind(t *testing.T) {
	list := []Descriptor{{Name: "a"}, {Name: "b"}}
	d, ok := Find(list, "b")
	assert.True(t, ok)
	assert.Equal(t, "b", d.Name)
	_, ok = Find(list, "c")
	assert.False(t, ok)
}

func TestDescriptorClone(t *testing.T) {
	d := Descriptor{Name: "deleteFile", Parameters: map[string]Parameter{"filePath": {Type: "string"}}}
	c := d.Clone()
	c.Parameters["extra"] = Parameter{Type: "boolean"}
	assert.Len(t, d.Parameters, 1)
	assert.Nil(t, Descriptor{Name: "bare"}.Clone().Parameters)
}
