package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tinybird-go/tinybird-go"
	"github.com/tinybird-go/tinybird-go/internal/logging"
	"github.com/tinybird-go/tinybird-go/region"
)

var version = "0.1.0"

// app is the state shared by all subcommands.
type app struct {
	cfg     Config
	envFile string
	output  string
	verbose bool
	token   string
	host    string
	region  string
	timeout time.Duration

	logger *zap.Logger
	client *tinybird.Client
}

func newRootCmd(cfg Config) *cobra.Command {
	a := &app{cfg: cfg}

	root := &cobra.Command{
		Use:           "tinybird",
		Short:         "Tinybird API client",
		Long:          `tinybird runs queries, calls pipe endpoints and manages Tinybird resources.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(cfg.Stdin)
	root.SetOut(cfg.Stdout)
	root.SetErr(cfg.Stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "file with TB_* variables to load if present")
	flags.StringVarP(&a.output, "output", "o", "json", "output format: json or yaml")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")
	flags.StringVar(&a.token, "token", "", "API token (overrides TB_TOKEN)")
	flags.StringVar(&a.host, "host", "", "API base URL (overrides TB_HOST and TB_REGION)")
	flags.StringVar(&a.region, "region", "", "region identifier such as gcp-us-east4")
	flags.DurationVar(&a.timeout, "timeout", time.Minute, "overall command timeout")

	root.AddCommand(
		a.queryCmd(),
		a.pipesCmd(),
		a.dataSourcesCmd(),
		a.jobsCmd(),
		a.tokensCmd(),
		a.eventsCmd(),
		a.regionCmd(),
	)
	return root
}

// connect loads the environment and creates the client. It is the
// PersistentPreRunE of every command that talks to the API.
func (a *app) connect(cmd *cobra.Command, _ []string) error {
	if a.output != "json" && a.output != "yaml" {
		return fmt.Errorf("unknown output format %q", a.output)
	}
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	logCfg := logging.DefaultConfig()
	if a.verbose {
		logCfg = logging.DevelopmentConfig()
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	a.logger = logger

	env, err := tinybird.LoadEnvConfig()
	if err != nil {
		return err
	}
	if a.token != "" {
		env.Token = a.token
	}
	switch {
	case a.host != "":
		env.Host, env.Region, env.Local = a.host, "", false
	case a.region != "":
		env.Host, env.Region, env.Local = "", a.region, false
	}

	client, err := tinybird.New(env.Token, append(env.Options(), tinybird.WithLogger(logger))...)
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

func (a *app) regionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List the supported regions and their API hosts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			type row struct {
				Region  string `json:"region"`
				BaseURL string `json:"base_url"`
				Default bool   `json:"default,omitempty"`
			}
			rows := make([]row, 0, len(region.All()))
			for _, r := range region.All() {
				rows = append(rows, row{Region: string(r), BaseURL: r.BaseURL(), Default: r == region.Default})
			}
			return a.print(rows)
		},
	}
	return cmd
}
