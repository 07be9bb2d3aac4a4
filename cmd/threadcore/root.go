package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/llxisdsh/threadcore"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	v       *viper.Viper
	log     zerolog.Logger
	cfgFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: zerolog.Nop()}
	cmd := &cobra.Command{
		Use:   "threadcore",
		Short: "Drive threadcore workers for diagnostics",
		Long: `threadcore runs priority message workers on dedicated OS threads.

Every flag can also be set in a YAML config file (--config, default
.threadcore.yaml in the working directory) or through an environment
variable named THREADCORE_<FLAG>, with dashes replaced by underscores,
e.g. THREADCORE_MAX_PRIORITY=4.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is .threadcore.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console, json)")
	a.bindFlags(pf)

	cmd.AddCommand(newStressCmd(a), newIndexCmd(a))
	return cmd
}

// bindFlags makes every flag of fs readable through viper under its own
// name, so a flag set on the command line overrides env and config file.
func (a *app) bindFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = a.v.BindPFlag(f.Name, f)
	})
}

// init loads configuration and installs the logger. It runs before every
// subcommand, once the subcommand's flags have been bound.
func (a *app) init(cmd *cobra.Command) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(".threadcore")
	}
	a.v.SetEnvPrefix("THREADCORE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	l, err := newLogger(cmd.ErrOrStderr(), a.v.GetString("log-level"), a.v.GetString("log-format"))
	if err != nil {
		return err
	}
	a.log = l
	threadcore.SetLogger(l)
	if f := a.v.ConfigFileUsed(); f != "" {
		a.log.Debug().Str("file", f).Msg("using config file")
	}
	return nil
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	var out io.Writer
	switch format {
	case "json":
		out = w
	case "console":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
