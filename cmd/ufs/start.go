package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yourname/ufs/internal/config"
	"github.com/yourname/ufs/internal/logging"
	"github.com/yourname/ufs/internal/server"
)

type startOptions struct {
	host       string
	ip         string
	port       uint16
	configPath string
}

func newStartCmd(stderr io.Writer) *cobra.Command {
	var o startOptions

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the upload server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd.Flags(), o, os.LookupEnv)
			if err != nil {
				return err
			}

			log := logging.New(stderr)
			b := server.New(cfg, log)
			b.StagingTTL = envDuration(os.LookupEnv, gcTTLHoursEnv, defaultGCTTLHours, time.Hour)
			b.GCInterval = envDuration(os.LookupEnv, gcIntervalMinEnv, defaultGCIntervalMin, time.Minute)

			if _, err := b.Listen(); err != nil {
				return err
			}
			return b.Serve(cmd.Context())
		},
	}

	bindStartFlags(cmd.Flags(), &o)
	return cmd
}

// bindStartFlags: -h is the host. Defining --help here stops cobra from
// claiming -h for its own help flag.
func bindStartFlags(f *pflag.FlagSet, o *startOptions) {
	f.Bool("help", false, "help for start")
	f.StringVarP(&o.host, "host", "h", "", "server host name (overrides server_config.host)")
	f.StringVarP(&o.ip, "ip-address", "i", "", "listen IP literal (overrides server_config.ip)")
	f.Uint16VarP(&o.port, "port", "p", 0, "listen port (overrides server_config.port)")
	f.StringVarP(&o.configPath, "config", "c", config.DefaultPath, "config file (.toml, .yaml or .yml)")
}

// resolveConfig: файл, затем переменные окружения, затем явно заданные флаги.
func resolveConfig(flags *pflag.FlagSet, o startOptions, lookup func(string) (string, bool)) (config.RuntimeConfig, error) {
	base, err := config.Load(o.configPath)
	if err != nil {
		return config.RuntimeConfig{}, err
	}

	env, err := config.FromEnv(lookup)
	if err != nil {
		return config.RuntimeConfig{}, err
	}

	var cli config.Override
	if flags.Changed("host") {
		cli.Host = &o.host
	}
	if flags.Changed("ip-address") {
		cli.IP = &o.ip
	}
	if flags.Changed("port") {
		cli.Port = &o.port
	}

	cfg := config.Merge(base, env, cli)
	if err := cfg.Validate(); err != nil {
		return config.RuntimeConfig{}, err
	}

	return cfg, nil
}
