package settings

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goplus/mkconfig/internal/registry"
	"github.com/goplus/mkconfig/pkgs/flagset"
)

const (
	// DefaultPath is the settings file read from the working directory.
	DefaultPath = "mkconfig.yaml"

	// DefaultProgram is the binary the generated Makefile links.
	DefaultProgram = "bin/hubbard.x"

	// DefaultSources are the files handed to makedepf90. Patterns are
	// expanded by bash and every pattern must match at least one file,
	// otherwise makedepf90 gives up.
	DefaultSources = "src/*.f90 lib/*.{f90,F90}"

	// baseKey names the configuration an entry derives from.
	baseKey = "base"
)

var (
	ErrUnknownField = flagset.ErrUnknownField
	ErrCycle        = errors.New("configuration derives from itself")
)

// Settings holds the project-local part of mkconfig's input.
type Settings struct {
	Program string `yaml:"program"`
	Sources string `yaml:"sources"`

	// Configurations adds to (or replaces) the built-in configurations.
	// Keys of an entry are FlagSet field names plus the optional "base".
	Configurations map[string]map[string]string `yaml:"configurations,omitempty"`
}

// Default returns the settings used when no settings file exists.
func Default() *Settings {
	return &Settings{
		Program: DefaultProgram,
		Sources: DefaultSources,
	}
}

// Load reads settings from path. A missing file is not an error: the
// defaults are returned. Environment overrides apply in both cases.
func Load(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	} else if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	s.applyEnvOverrides()
	return s, nil
}

// applyEnvOverrides applies environment variable overrides.
func (s *Settings) applyEnvOverrides() {
	if v := os.Getenv("MKCONFIG_PROGRAM"); v != "" {
		s.Program = v
	}
	if v := os.Getenv("MKCONFIG_SOURCES"); v != "" {
		s.Sources = v
	}
}

// Validate reports settings Render would refuse.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Program) == "" {
		return errors.New("settings: program is empty")
	}
	if strings.TrimSpace(s.Sources) == "" {
		return errors.New("settings: sources are empty")
	}
	return nil
}

// Apply registers every configuration of s in reg.
//
// An entry with a base starts from that configuration: another entry of s
// if one has that name, otherwise a configuration already in reg. Entries
// without a base start from the empty FlagSet.
func (s *Settings) Apply(reg *registry.Registry) error {
	names := make([]string, 0, len(s.Configurations))
	for name := range s.Configurations {
		names = append(names, name)
	}
	sort.Strings(names)

	r := &resolver{
		entries:  s.Configurations,
		reg:      reg,
		resolved: make(map[string]flagset.FlagSet, len(names)),
		visiting: make(map[string]bool),
	}
	for _, name := range names {
		if _, err := r.resolve(name); err != nil {
			return err
		}
	}
	for _, name := range names {
		reg.Register(name, r.resolved[name])
	}
	return nil
}

type resolver struct {
	entries  map[string]map[string]string
	reg      *registry.Registry
	resolved map[string]flagset.FlagSet
	visiting map[string]bool
}

func (r *resolver) resolve(name string) (flagset.FlagSet, error) {
	if f, ok := r.resolved[name]; ok {
		return f, nil
	}
	if r.visiting[name] {
		return flagset.FlagSet{}, fmt.Errorf("%w: %s", ErrCycle, name)
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	entry := r.entries[name]
	fields := make(map[string]string, len(entry))
	for k, v := range entry {
		if k != baseKey {
			fields[k] = v
		}
	}
	opts, err := flagset.Overrides(fields)
	if err != nil {
		return flagset.FlagSet{}, fmt.Errorf("configuration %s: %w", name, err)
	}

	var base flagset.FlagSet
	if b, ok := entry[baseKey]; ok {
		base, err = r.base(name, b)
		if err != nil {
			return flagset.FlagSet{}, err
		}
	}

	f := base.With(opts...)
	r.resolved[name] = f
	return f, nil
}

func (r *resolver) base(name, base string) (flagset.FlagSet, error) {
	// An entry may refine the built-in of the same name.
	if _, ok := r.entries[base]; ok && base != name {
		return r.resolve(base)
	}
	f, err := r.reg.Lookup(base)
	if err != nil {
		return flagset.FlagSet{}, fmt.Errorf("configuration %s: base: %w", name, err)
	}
	return f, nil
}
