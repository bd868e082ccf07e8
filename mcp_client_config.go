package mcpclient

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// ProtocolVariant selects how invocation results are obtained.
type ProtocolVariant string

const (
	// VariantAuto returns an inline result when the submission response
	// carries one and otherwise waits on the event stream.
	VariantAuto ProtocolVariant = "auto"
	// VariantImmediate expects every submission response to carry the result.
	VariantImmediate ProtocolVariant = "immediate"
	// VariantStream ignores submission bodies and always waits on the stream.
	VariantStream ProtocolVariant = "stream"
)

// EventTransport selects how the event stream is opened.
type EventTransport string

const (
	TransportSSE       EventTransport = "sse"
	TransportWebSocket EventTransport = "websocket"
)

// Variable names read by ApplyVariables.
const (
	VarServerURL      = "MCP_SERVER_URL"
	VarConnectTimeout = "MCP_CONNECT_TIMEOUT"
	VarInvokeTimeout  = "MCP_INVOKE_TIMEOUT"
	VarVariant        = "MCP_PROTOCOL_VARIANT"
	VarEventTransport = "MCP_EVENT_TRANSPORT"
)

// VariableNotFound is returned when a requested variable isn't present.
type VariableNotFound struct {
	VariableName string
}

func (e *VariableNotFound) Error() string {
	return fmt.Sprintf(
		"Variable %q referenced in client configuration not found. "+
			"Please add it to the environment variables or to your client configuration.",
		e.VariableName,
	)
}

// VariablesConfig is the interface for any variable-loading strategy.
type VariablesConfig interface {
	// Load returns all variables available from this provider.
	Load() (map[string]string, error)
	// Get returns a single variable value or an error if not present.
	Get(key string) (string, error)
}

// DotEnv implements VariablesConfig by loading a .env file.
type DotEnv struct {
	EnvFilePath string
}

func NewDotEnv(path string) *DotEnv {
	return &DotEnv{EnvFilePath: path}
}

// Load reads the .env file and returns a map of key→value.
func (u *DotEnv) Load() (map[string]string, error) {
	return godotenv.Read(u.EnvFilePath)
}

// Get loads the file and looks up a single key.
func (u *DotEnv) Get(key string) (string, error) {
	vars, err := u.Load()
	if err != nil {
		return "", err
	}
	if val, ok := vars[key]; ok {
		return val, nil
	}
	return "", &VariableNotFound{VariableName: key}
}

// ProcessEnv implements VariablesConfig over the process environment.
type ProcessEnv struct{}

func (ProcessEnv) Load() (map[string]string, error) {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out, nil
}

func (ProcessEnv) Get(key string) (string, error) {
	if v, ok := os.LookupEnv(key); ok {
		return v, nil
	}
	return "", &VariableNotFound{VariableName: key}
}

// ClientConfig holds connection settings for one Client.
type ClientConfig struct {
	// ServerURL is the base URL, e.g. http://172.16.16.54:8080.
	ServerURL string `yaml:"server_url"`

	EventTransport EventTransport `yaml:"event_transport"`
	// EventPath overrides the stream endpoint path (/sse or /ws).
	EventPath string `yaml:"event_path"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	InvokeTimeout  time.Duration `yaml:"invoke_timeout"`
	// DisconnectWait bounds how long Disconnect waits for the listener.
	DisconnectWait time.Duration `yaml:"disconnect_wait"`

	Variant ProtocolVariant `yaml:"protocol_variant"`

	// RawResults disables unwrapping of content.content[0].text.
	RawResults bool `yaml:"raw_results"`

	Headers map[string]string `yaml:"headers"`

	// Variables explicitly passed in (takes precedence)
	Variables map[string]string `yaml:"variables"`

	// A list of providers to load from (e.g. .env, process environment)
	LoadVariablesFrom []VariablesConfig `yaml:"-"`
}

// NewClientConfig constructs a config with sensible defaults.
func NewClientConfig() *ClientConfig {
	return &ClientConfig{
		EventTransport: TransportSSE,
		ConnectTimeout: 10 * time.Second,
		InvokeTimeout:  30 * time.Second,
		DisconnectWait: time.Second,
		Variant:        VariantAuto,
		Headers:        make(map[string]string),
		Variables:      make(map[string]string),
	}
}

// LoadConfigFile reads a YAML config on top of the defaults.
func LoadConfigFile(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %q: %w", path, err)
	}
	cfg := NewClientConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file %q: %w", path, err)
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	if cfg.Variables == nil {
		cfg.Variables = make(map[string]string)
	}
	return cfg, nil
}

// Lookup resolves key from Variables, then from each LoadVariablesFrom
// provider in order.
func (c *ClientConfig) Lookup(key string) (string, error) {
	if v, ok := c.Variables[key]; ok {
		return v, nil
	}
	for _, src := range c.LoadVariablesFrom {
		v, err := src.Get(key)
		if err == nil {
			return v, nil
		}
		if _, missing := err.(*VariableNotFound); !missing {
			return "", err
		}
	}
	return "", &VariableNotFound{VariableName: key}
}

var varPattern = regexp.MustCompile(`\$\{(\w+)\}|\$(\w+)`)

// Substitute replaces ${VAR} and $VAR references in s.
func (c *ClientConfig) Substitute(s string) (string, error) {
	var firstErr error
	out := varPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := varPattern.FindStringSubmatch(m)
		name := sub[1]
		if name == "" {
			name = sub[2]
		}
		v, err := c.Lookup(name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		return v
	})
	return out, firstErr
}

// ApplyVariables fills settings from the MCP_* variables and substitutes
// variable references in ServerURL and Headers. Explicit, non-default values
// already in the config are overridden only by explicitly present variables.
func (c *ClientConfig) ApplyVariables() error {
	if v, err := c.optional(VarServerURL); err != nil {
		return err
	} else if v != "" {
		c.ServerURL = v
	}
	for name, dst := range map[string]*time.Duration{
		VarConnectTimeout: &c.ConnectTimeout,
		VarInvokeTimeout:  &c.InvokeTimeout,
	} {
		v, err := c.optional(name)
		if err != nil {
			return err
		}
		if v == "" {
			continue
		}
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = d
	}
	if v, err := c.optional(VarVariant); err != nil {
		return err
	} else if v != "" {
		c.Variant = ProtocolVariant(strings.ToLower(v))
	}
	if v, err := c.optional(VarEventTransport); err != nil {
		return err
	} else if v != "" {
		c.EventTransport = EventTransport(strings.ToLower(v))
	}

	url, err := c.Substitute(c.ServerURL)
	if err != nil {
		return err
	}
	c.ServerURL = url
	for k, v := range c.Headers {
		sub, err := c.Substitute(v)
		if err != nil {
			return err
		}
		c.Headers[k] = sub
	}
	return nil
}

func (c *ClientConfig) optional(key string) (string, error) {
	v, err := c.Lookup(key)
	if _, missing := err.(*VariableNotFound); missing {
		return "", nil
	}
	return v, err
}

// parseDuration accepts Go durations ("1500ms") and bare seconds ("10").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Validate checks the config is usable.
func (c *ClientConfig) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return fmt.Errorf("server URL is required (set server_url or %s)", VarServerURL)
	}
	switch c.Variant {
	case VariantAuto, VariantImmediate, VariantStream:
	default:
		return fmt.Errorf("unknown protocol variant %q", c.Variant)
	}
	switch c.EventTransport {
	case TransportSSE, TransportWebSocket:
	default:
		return fmt.Errorf("unknown event transport %q", c.EventTransport)
	}
	if c.ConnectTimeout <= 0 || c.InvokeTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
