package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goplus/mkconfig/pkgs/flagset"
)

// ErrUnknownConfiguration is matched by every failed lookup.
var ErrUnknownConfiguration = errors.New("configuration not recognized")

// UnknownConfigurationError reports a configuration name missing from a Registry.
type UnknownConfigurationError struct {
	Name      string
	Available []string
}

func (e *UnknownConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s\nAvailable configurations are: %s.",
		ErrUnknownConfiguration, e.Name, strings.Join(e.Available, ", "))
}

func (e *UnknownConfigurationError) Unwrap() error {
	return ErrUnknownConfiguration
}

// Registry maps configuration names to flag sets.
// Entries are added explicitly; nothing is discovered implicitly.
type Registry struct {
	entries map[string]flagset.FlagSet
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]flagset.FlagSet)}
}

// Register stores f under name, replacing any earlier entry of that name.
func (r *Registry) Register(name string, f flagset.FlagSet) {
	r.entries[name] = f
}

// Define builds a FlagSet from opts, registers it under name and returns it.
func (r *Registry) Define(name string, opts ...flagset.Option) flagset.FlagSet {
	f := flagset.New(opts...)
	r.Register(name, f)
	return f
}

// Derive registers under name a copy of the configuration base with opts applied.
func (r *Registry) Derive(name, base string, opts ...flagset.Option) (flagset.FlagSet, error) {
	b, err := r.Lookup(base)
	if err != nil {
		return flagset.FlagSet{}, fmt.Errorf("derive %s: %w", name, err)
	}
	f := b.With(opts...)
	r.Register(name, f)
	return f, nil
}

// Lookup returns the configuration called name.
func (r *Registry) Lookup(name string) (flagset.FlagSet, error) {
	f, ok := r.entries[name]
	if !ok {
		return flagset.FlagSet{}, &UnknownConfigurationError{Name: name, Available: r.Names()}
	}
	return f, nil
}

// All returns a copy of every registered configuration.
func (r *Registry) All() map[string]flagset.FlagSet {
	all := make(map[string]flagset.FlagSet, len(r.entries))
	for k, v := range r.entries {
		all[k] = v
	}
	return all
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for k := range r.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered configurations.
func (r *Registry) Len() int {
	return len(r.entries)
}
