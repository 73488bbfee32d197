package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli carries the state shared by every command of one invocation.
type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "proxsweep",
		Short: "Proximal operators of scalar functions by bracketing search",
		Long: `proxsweep evaluates prox(u) = argmin f(x) + (x-u)^2/(2 rho) over a closed
interval with a golden-section or dichotomy search, sweeps it over anchors
and smoothness parameters, and iterates it as a descent method.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "json", "Log format (json, text)")
	pf.String("config", "", "Config file (YAML, TOML or JSON); keys mirror flag names")
	pf.StringP("output", "o", "text", "Output format (text, json)")

	root.AddCommand(
		c.minimizeCmd(),
		c.proxCmd(),
		c.descendCmd(),
		c.sweepCmd(),
		c.envelopeCmd(),
		c.objectivesCmd(),
		c.runsCmd(),
		c.serveCmd(),
		c.statusCmd(),
		versionCmd(),
	)
	return root
}

// setup binds the flags of the running command to viper, reads the config
// file and installs the logger. Flags win over PROXSWEEP_* variables, which
// win over the config file.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	c.v.SetEnvPrefix("PROXSWEEP")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if path := c.v.GetString("config"); path != "" {
		c.v.SetConfigFile(path)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	switch c.v.GetString("output") {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q", c.v.GetString("output"))
	}

	logger, err := newLogger(c.v.GetString("log-level"), c.v.GetString("log-format"), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func newLogger(levelName, format string, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	case "text":
		return slog.New(tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.TimeOnly})), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}
