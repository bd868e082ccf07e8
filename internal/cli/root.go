package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	mcpclient "github.com/Yaswanth-ampolu/productdemo"
	json "github.com/Yaswanth-ampolu/productdemo/src/json"
)

// GlobalFlags holds flags shared across all commands.
type GlobalFlags struct {
	Server     string
	ConfigPath string
	EnvFile    string
	Transport  string
	Variant    string
	Timeout    time.Duration
	Verbose    bool
}

// NewRootCmd builds the mcpctl command tree.
func NewRootCmd() *cobra.Command {
	flags := &GlobalFlags{}
	root := &cobra.Command{
		Use:           "mcpctl",
		Short:         "Invoke tools on a stream-based tool server",
		Long:          "mcpctl connects to a tool server's event stream, submits tool calls and prints their results as JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.Server, "server", "", "server base URL (default $"+mcpclient.VarServerURL+")")
	pf.StringVar(&flags.ConfigPath, "config", "", "YAML client config file")
	pf.StringVar(&flags.EnvFile, "env-file", ".env", "dotenv file with MCP_* variables")
	pf.StringVar(&flags.Transport, "transport", "", "event transport: sse or websocket")
	pf.StringVar(&flags.Variant, "variant", "", "result delivery: auto, immediate or stream")
	pf.DurationVar(&flags.Timeout, "timeout", 0, "per-call timeout (default from config)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "log protocol activity to stderr")

	root.AddCommand(
		newInvokeCmd(flags),
		newListCmd(flags),
		newInfoCmd(flags),
		newLocalCmd(flags),
		newBridgeCmd(flags),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (f *GlobalFlags) logger(stderr io.Writer) func(format string, args ...interface{}) {
	if !f.Verbose {
		return nil
	}
	l := log.New(stderr, "mcpctl: ", log.LstdFlags)
	return l.Printf
}

// loadConfig layers defaults, the config file, variables and flags, in
// that order of increasing precedence.
func (f *GlobalFlags) loadConfig() (*mcpclient.ClientConfig, error) {
	cfg := mcpclient.NewClientConfig()
	if f.ConfigPath != "" {
		var err error
		if cfg, err = mcpclient.LoadConfigFile(f.ConfigPath); err != nil {
			return nil, err
		}
	}
	cfg.LoadVariablesFrom = append(cfg.LoadVariablesFrom, mcpclient.ProcessEnv{})
	if f.EnvFile != "" {
		if _, err := os.Stat(f.EnvFile); err == nil {
			cfg.LoadVariablesFrom = append(cfg.LoadVariablesFrom, mcpclient.NewDotEnv(f.EnvFile))
		}
	}
	if err := cfg.ApplyVariables(); err != nil {
		return nil, err
	}
	if f.Server != "" {
		cfg.ServerURL = f.Server
	}
	if f.Transport != "" {
		cfg.EventTransport = mcpclient.EventTransport(f.Transport)
	}
	if f.Variant != "" {
		cfg.Variant = mcpclient.ProtocolVariant(f.Variant)
	}
	if f.Timeout > 0 {
		cfg.InvokeTimeout = f.Timeout
	}
	return cfg, nil
}

// connect builds a client and opens a session.
func (f *GlobalFlags) connect(cmd *cobra.Command) (*mcpclient.Client, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	client, err := mcpclient.NewClient(cfg, mcpclient.WithLogger(f.logger(cmd.ErrOrStderr())))
	if err != nil {
		return nil, err
	}
	if _, err := client.Connect(cmd.Context(), cfg.ConnectTimeout); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.ServerURL, err)
	}
	return client, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
