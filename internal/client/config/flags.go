package config

import (
	"time"

	"github.com/spf13/cobra"
)

// Flags are the persistent command-line flags of the CLI. Only flags set
// explicitly override values from the environment or the JSON file.
type Flags struct {
	ConfigPath  string
	ServerURL   string
	AccessToken string
	CorretorID  string
	Timeout     time.Duration
	RetryCount  int
	DraftsPath  string
	Verbose     bool
}

// Register adds the flags to cmd as persistent flags.
func (f *Flags) Register(cmd *cobra.Command) {
	var d Config
	d.LoadDefaults()

	fs := cmd.PersistentFlags()
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "path to a JSON config file")
	fs.StringVarP(&f.ServerURL, "server", "s", d.ServerURL, "base URL of the inspection API")
	fs.StringVarP(&f.AccessToken, "token", "t", "", "bearer access token")
	fs.StringVar(&f.CorretorID, "corretor", "", "default agent id")
	fs.DurationVar(&f.Timeout, "timeout", d.Timeout, "request timeout")
	fs.IntVar(&f.RetryCount, "retries", d.RetryCount, "transport retries per request")
	fs.StringVar(&f.DraftsPath, "drafts", d.DraftsPath, "path of the local drafts database")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "print HTTP client diagnostics to stderr")
}

// Apply copies the flags the user set on cmd into cfg.
func (f *Flags) Apply(cmd *cobra.Command, cfg *Config) {
	fs := cmd.Flags()
	if fs.Changed("server") {
		cfg.ServerURL = f.ServerURL
	}
	if fs.Changed("token") {
		cfg.AccessToken = f.AccessToken
	}
	if fs.Changed("corretor") {
		cfg.CorretorID = f.CorretorID
	}
	if fs.Changed("timeout") {
		cfg.Timeout = f.Timeout
	}
	if fs.Changed("retries") {
		cfg.RetryCount = f.RetryCount
	}
	if fs.Changed("drafts") {
		cfg.DraftsPath = f.DraftsPath
	}
	if fs.Changed("verbose") {
		cfg.Verbose = f.Verbose
	}
}

// Resolve loads the full configuration for cmd: defaults, environment,
// JSON file, then flags.
func (f *Flags) Resolve(cmd *cobra.Command) (*Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	f.Apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
