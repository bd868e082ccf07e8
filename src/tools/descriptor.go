package tools

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	json "github.com/Yaswanth-ampolu/productdemo/src/json"
)

// Parameter describes one named tool argument.
type Parameter struct {
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// Descriptor is the metadata advertised for a remote tool.
type Descriptor struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]Parameter `json:"parameters"`
}

// Clone returns a copy that shares no maps with d.
func (d Descriptor) Clone() Descriptor {
	d.Parameters = maps.Clone(d.Parameters)
	return d
}

// ServerInfo is returned by the info endpoint.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// UnmarshalJSON accepts both the flat parameter map
// ({"dirPath":{"type":"string","required":true}}) and a JSON-schema object
// ({"type":"object","properties":{...},"required":[...]}).
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
		InputSchema json.RawMessage `json:"inputSchema"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Name = raw.Name
	d.Description = raw.Description
	d.Parameters = map[string]Parameter{}

	params := raw.Parameters
	if len(params) == 0 || string(params) == "null" {
		params = raw.InputSchema
	}
	if len(params) == 0 || string(params) == "null" {
		return nil
	}

	var schema struct {
		Type       string               `json:"type"`
		Properties map[string]Parameter `json:"properties"`
		Required   []string             `json:"required"`
	}
	if err := json.Unmarshal(params, &schema); err == nil && schema.Type == "object" && schema.Properties != nil {
		for name, p := range schema.Properties {
			d.Parameters[name] = p
		}
		for _, name := range schema.Required {
			p := d.Parameters[name]
			p.Required = true
			d.Parameters[name] = p
		}
		return nil
	}

	var flat map[string]Parameter
	if err := json.Unmarshal(params, &flat); err != nil {
		return fmt.Errorf("tool %q: invalid parameters: %w", raw.Name, err)
	}
	for name, p := range flat {
		d.Parameters[name] = p
	}
	return nil
}

// ParameterNames returns the parameter names sorted, required first.
func (d Descriptor) ParameterNames() []string {
	names := make([]string, 0, len(d.Parameters))
	for n := range d.Parameters {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := d.Parameters[names[i]].Required, d.Parameters[names[j]].Required
		if ri != rj {
			return ri
		}
		return names[i] < names[j]
	})
	return names
}

// Validate checks that every required parameter is present in params.
func (d Descriptor) Validate(params map[string]any) error {
	var missing []string
	for _, name := range d.ParameterNames() {
		if !d.Parameters[name].Required {
			continue
		}
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("tool %q: missing required parameters: %s", d.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Find returns the descriptor called name.
func Find(list []Descriptor, name string) (Descriptor, bool) {
	for _, d := range list {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
