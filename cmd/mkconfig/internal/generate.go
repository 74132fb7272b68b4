package internal

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/goplus/mkconfig/internal/registry"
	"github.com/goplus/mkconfig/internal/settings"
	"github.com/goplus/mkconfig/internal/vcs"
	"github.com/goplus/mkconfig/pkgs/makefile"
)

// generate renders the configuration called name and writes the Makefile.
func (o *options) generate(cmd *cobra.Command, s *settings.Settings, reg *registry.Registry, name string) error {
	flags, err := reg.Lookup(name)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	text, err := makefile.Render(flags, s.Program, s.Sources, o.debug)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	if o.logger.Core().Enabled(zapcore.DebugLevel) {
		logWorkingTree(cmd.Context(), o.logger)
	}

	if o.output == "-" {
		_, err := io.WriteString(cmd.OutOrStdout(), text)
		return err
	}
	if err := makefile.WriteFile(o.output, text); err != nil {
		return err
	}
	o.logger.Debug("Wrote Makefile",
		zap.String("configuration", name),
		zap.String("path", o.output),
		zap.Bool("debug", o.debug),
		zap.String("program", s.Program))
	return nil
}

// logWorkingTree reports the fingerprint the Makefile will compute at build time.
func logWorkingTree(ctx context.Context, logger *zap.Logger) {
	if ctx == nil {
		ctx = context.Background()
	}
	state := vcs.Probe(ctx, vcs.NewGitVCS(), ".")
	if !state.Tracked {
		logger.Debug("Working tree is not under version control",
			zap.String("revision", state.Revision))
		return
	}
	logger.Debug("Working tree",
		zap.String("revision", state.Revision),
		zap.Bool("dirty", state.Dirty))
}

// printConfigs writes every configuration, sorted by name, with all its fields.
func printConfigs(w io.Writer, reg *registry.Registry) error {
	if _, err := fmt.Fprintln(w, "Available configurations are:"); err != nil {
		return err
	}
	for _, name := range reg.Names() {
		flags, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(flags)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		if _, err := fmt.Fprintf(w, "\n%s\n%s", name, indent(string(data), "    ")); err != nil {
			return err
		}
	}
	return nil
}

func indent(s, prefix string) string {
	var out []byte
	bol := true
	for i := 0; i < len(s); i++ {
		if bol && s[i] != '\n' {
			out = append(out, prefix...)
		}
		out = append(out, s[i])
		bol = s[i] == '\n'
	}
	return string(out)
}
