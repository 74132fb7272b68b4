package internal

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goplus/mkconfig/internal/registry"
	"github.com/goplus/mkconfig/internal/settings"
)

const description = `Produce a Makefile for compiling the source code for a specified configuration.
The resulting Makefile requires makedepf90 to produce a list of dependencies.`

type options struct {
	listConfigs  bool
	debug        bool
	verbose      bool
	output       string
	settingsPath string
	program      string
	sources      string

	logger *zap.Logger
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	o := &options{logger: logger}

	cmd := &cobra.Command{
		Use:           "mkconfig [flags] configuration",
		Short:         "mkconfig writes a Makefile for a named compiler configuration",
		Long:          description,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if o.logger != nil {
				return nil
			}
			config := zap.NewDevelopmentConfig()
			config.DisableStacktrace = true
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if o.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			o.logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if o.logger != nil {
				_ = o.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&o.listConfigs, "config", "c", false, "Print out the available configurations and their settings")
	flags.BoolVarP(&o.debug, "debug", "d", false, "Turn on debug flags (and turn off all optimisations)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVarP(&o.output, "output", "o", "Makefile", "Makefile to write, - for stdout")
	flags.StringVarP(&o.settingsPath, "settings", "f", settings.DefaultPath, "Settings file with local configurations")
	flags.StringVar(&o.program, "program", "", "Program to build (overrides settings)")
	flags.StringVar(&o.sources, "sources", "", "Space separated source patterns (overrides settings)")

	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		printHelp(cmd.OutOrStdout(), cmd, o.helpRegistry())
	})

	return cmd
}

func (o *options) run(cmd *cobra.Command, args []string) error {
	if !o.listConfigs && len(args) != 1 {
		return cmd.Help()
	}
	s, reg, err := o.load()
	if err != nil {
		return err
	}
	if o.listConfigs {
		return printConfigs(cmd.OutOrStdout(), reg)
	}
	return o.generate(cmd, s, reg, args[0])
}

// helpRegistry returns the configurations to list in the usage text.
// A broken settings file must not hide the help, so it falls back to the
// built-ins then.
func (o *options) helpRegistry() *registry.Registry {
	reg := registry.Builtin()
	s, err := settings.Load(o.settingsPath)
	if err != nil {
		return reg
	}
	if err := s.Apply(reg); err != nil {
		return registry.Builtin()
	}
	return reg
}

// load reads the settings file and builds the registry from the built-in
// configurations plus those the settings declare.
func (o *options) load() (*settings.Settings, *registry.Registry, error) {
	s, err := settings.Load(o.settingsPath)
	if err != nil {
		return nil, nil, err
	}
	if o.program != "" {
		s.Program = o.program
	}
	if o.sources != "" {
		s.Sources = o.sources
	}

	reg := registry.Builtin()
	builtins := reg.Len()
	if err := s.Apply(reg); err != nil {
		return nil, nil, fmt.Errorf("failed to apply %s: %w", o.settingsPath, err)
	}
	o.logger.Debug("Loaded configurations",
		zap.String("settings", o.settingsPath),
		zap.Int("builtin", builtins),
		zap.Int("total", reg.Len()))
	return s, reg, nil
}

func printHelp(w io.Writer, cmd *cobra.Command, reg *registry.Registry) {
	fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n\nOptions:\n%s\nAvailable configurations are: %s.\n",
		cmd.Long, cmd.UseLine(), cmd.Flags().FlagUsages(), strings.Join(reg.Names(), ", "))
}

// Execute runs the mkconfig command line and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	log.SetFlags(0)
	log.SetPrefix("mkconfig: ")
	if err := newRootCmd(nil).Execute(); err != nil {
		log.Fatal(err)
	}
}
