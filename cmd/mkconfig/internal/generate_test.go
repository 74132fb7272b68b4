package internal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/goplus/mkconfig/internal/registry"
)

// runMkconfig runs the command line with args inside a fresh directory and
// returns its stdout. The settings file and Makefile default to that directory.
func runMkconfig(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MKCONFIG_PROGRAM", "")
	t.Setenv("MKCONFIG_SOURCES", "")

	base := []string{
		"--settings", filepath.Join(dir, "mkconfig.yaml"),
		"--output", filepath.Join(dir, "Makefile"),
	}
	cmd := newRootCmd(zap.NewNop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func assertNoMakefile(t *testing.T, dir string) {
	t.Helper()
	if _, err := os.Stat(filepath.Join(dir, "Makefile")); !os.IsNotExist(err) {
		t.Errorf("Makefile was written (stat err = %v)", err)
	}
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	out, err := runMkconfig(t, dir, "gfortran")
	if err != nil {
		t.Fatalf("mkconfig gfortran failed: %v", err)
	}
	if out != "" {
		t.Errorf("successful run printed %q", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Makefile"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"FC=gfortran\n",
		"FFLAGS=-I $(DEST) -O3 -fbounds-check\n",
		"LD=gfortran\n",
		"-o $@ -M $(DEST)\n",
		"new: clean bin/hubbard.x\n",
		"src/*.f90 lib/*.{f90,F90}",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Makefile lacks %q", want)
		}
	}
}

func TestGenerateDebug(t *testing.T) {
	for _, flag := range []string{"-d", "--debug"} {
		t.Run(flag, func(t *testing.T) {
			dir := t.TempDir()
			if _, err := runMkconfig(t, dir, flag, "pgf90"); err != nil {
				t.Fatalf("mkconfig %s pgf90 failed: %v", flag, err)
			}
			data, err := os.ReadFile(filepath.Join(dir, "Makefile"))
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), "FFLAGS=-I $(DEST) -g\n") {
				t.Error("debug Makefile does not use -g")
			}
			if strings.Contains(string(data), "-Mbounds") {
				t.Error("debug Makefile kept the configuration's compile flags")
			}
		})
	}
}

func TestGenerateOverwrites(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Makefile"), []byte("stale\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := runMkconfig(t, dir, "g95"); err != nil {
		t.Fatalf("mkconfig g95 failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "Makefile"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale") || !strings.Contains(string(data), "FC=g95\n") {
		t.Error("existing Makefile was not replaced")
	}
}

func TestGenerateStdout(t *testing.T) {
	dir := t.TempDir()
	out, err := runMkconfig(t, dir, "--program", "bin/qmc.x", "--sources", "src/*.F90", "nag", "-o", "-")
	if err != nil {
		t.Fatalf("mkconfig -o - nag failed: %v", err)
	}
	for _, want := range []string{"FC=nagfor\n", "new: clean bin/qmc.x\n", " src/*.F90 -d "} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout lacks %q", want)
		}
	}
	assertNoMakefile(t, dir)
}

func TestUnknownConfiguration(t *testing.T) {
	dir := t.TempDir()
	_, err := runMkconfig(t, dir, "gcc")
	if !errors.Is(err, registry.ErrUnknownConfiguration) {
		t.Fatalf("mkconfig gcc error = %v, want ErrUnknownConfiguration", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "gcc") || !strings.Contains(msg, "g95, gfortran, gfortran_mpi, ifort") {
		t.Errorf("error message %q does not name the configuration and the valid ones", msg)
	}
	assertNoMakefile(t, dir)
}

func TestHelp(t *testing.T) {
	names := "Available configurations are: " + strings.Join(registry.Builtin().Names(), ", ") + "."
	tests := []struct {
		name     string
		settings string
		args     []string
	}{
		{"no args", "", nil},
		{"too many args", "", []string{"ifort", "nag"}},
		{"short", "", []string{"-h"}},
		{"long", "", []string{"--help", "ifort"}},
		{"no args with broken settings", "program: [\n", nil},
		{"too many args with broken settings", "program: [\n", []string{"ifort", "nag"}},
		{"no args with bad configuration", "configurations:\n  x:\n    base: gcc\n", nil},
		{"short with broken settings", "program: [\n", []string{"-h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.settings != "" {
				if err := os.WriteFile(filepath.Join(dir, "mkconfig.yaml"), []byte(tt.settings), 0644); err != nil {
					t.Fatal(err)
				}
			}
			out, err := runMkconfig(t, dir, tt.args...)
			if err != nil {
				t.Fatalf("mkconfig %v failed: %v", tt.args, err)
			}
			if !strings.Contains(out, "Usage:") || !strings.Contains(out, names) {
				t.Errorf("help output missing usage or names:\n%s", out)
			}
			if !strings.Contains(out, "--debug") {
				t.Errorf("help output does not describe the options:\n%s", out)
			}
			assertNoMakefile(t, dir)
		})
	}
}

func TestUnknownConfigurationBeforeSettingsCheck(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mkconfig.yaml"), []byte("program: \"\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := runMkconfig(t, dir, "nosuch")
	if !errors.Is(err, registry.ErrUnknownConfiguration) {
		t.Fatalf("mkconfig nosuch error = %v, want ErrUnknownConfiguration", err)
	}
	assertNoMakefile(t, dir)

	// A known configuration still reports the empty program.
	if _, err := runMkconfig(t, dir, "ifort"); err == nil || !strings.Contains(err.Error(), "program is empty") {
		t.Errorf("mkconfig ifort error = %v, want empty program", err)
	}
	assertNoMakefile(t, dir)
}

func TestListConfigs(t *testing.T) {
	dir := t.TempDir()
	out, err := runMkconfig(t, dir, "-c", "ifort")
	if err != nil {
		t.Fatalf("mkconfig -c failed: %v", err)
	}
	if !strings.HasPrefix(out, "Available configurations are:\n") {
		t.Errorf("listing starts with %q", strings.SplitN(out, "\n", 2)[0])
	}

	last := -1
	for _, name := range registry.Builtin().Names() {
		i := strings.Index(out, "\n"+name+"\n")
		if i < 0 {
			t.Fatalf("listing lacks %s", name)
		}
		if i < last {
			t.Errorf("%s listed out of order", name)
		}
		last = i
	}
	for _, want := range []string{"compile_flags:", "-O3 -fbounds-check", "module_flag:", "libraries:"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing lacks %q", want)
		}
	}
	assertNoMakefile(t, dir)
}

func TestSettingsFile(t *testing.T) {
	dir := t.TempDir()
	settings := `
program: bin/dmqmc.x
configurations:
  gfortran_check:
    base: gfortran
    compile_flags: -O0 -fcheck=all
`
	if err := os.WriteFile(filepath.Join(dir, "mkconfig.yaml"), []byte(settings), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runMkconfig(t, dir, "-h")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "gfortran_check") {
		t.Error("help does not list the configuration from the settings file")
	}

	if _, err := runMkconfig(t, dir, "gfortran_check"); err != nil {
		t.Fatalf("mkconfig gfortran_check failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "Makefile"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"FC=gfortran\n", "FFLAGS=-I $(DEST) -O0 -fcheck=all\n", "new: clean bin/dmqmc.x\n"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Makefile lacks %q", want)
		}
	}
}

func TestSettingsFileInvalid(t *testing.T) {
	dir := t.TempDir()
	settings := "configurations:\n  broken:\n    FFLAGS: -O2\n"
	if err := os.WriteFile(filepath.Join(dir, "mkconfig.yaml"), []byte(settings), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := runMkconfig(t, dir, "ifort"); err == nil {
		t.Fatal("mkconfig with an invalid settings file succeeded")
	}
	assertNoMakefile(t, dir)
}

func TestIndent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"a: 1\n", "  a: 1\n"},
		{"a: 1\n\nb: 2\n", "  a: 1\n\n  b: 2\n"},
	}
	for _, tt := range tests {
		if got := indent(tt.in, "  "); got != tt.want {
			t.Errorf("indent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
