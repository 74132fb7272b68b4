package registry

import (
	"github.com/goplus/mkconfig/pkgs/flagset"
)

// mpi returns the options turning a serial configuration into its MPI
// variant, followed by extra.
func mpi(extra ...flagset.Option) []flagset.Option {
	return append([]flagset.Option{
		flagset.Compiler("mpif90"),
		flagset.Linker("mpif90"),
		flagset.PreprocessorDefines("-D__PARALLEL"),
	}, extra...)
}

// mustDerive is Derive for bases declared just above; a missing one is a bug.
func (r *Registry) mustDerive(name, base string, opts ...flagset.Option) {
	if _, err := r.Derive(name, base, opts...); err != nil {
		panic(err)
	}
}

// Builtin returns a Registry holding the known compiler configurations.
// Add new configurations here.
func Builtin() *Registry {
	r := New()

	r.Define("ifort",
		flagset.Compiler("ifort"),
		flagset.Linker("ifort"),
		flagset.ModuleFlag("-module $(DEST)"),
	)
	r.mustDerive("ifort_mpi", "ifort", mpi()...)

	r.Define("gfortran",
		flagset.Compiler("gfortran"),
		flagset.CompileFlags("-O3 -fbounds-check"),
		flagset.Linker("gfortran"),
		flagset.ModuleFlag("-M $(DEST)"),
	)
	r.mustDerive("gfortran_mpi", "gfortran", mpi(
		flagset.CompileFlags("-I /usr/local/shared/suse-10.3/x86_64/openmpi-1.2.6-gnu/lib"),
	)...)

	r.Define("g95",
		flagset.Compiler("g95"),
		flagset.CompileFlags("-fbounds-check"),
		flagset.Linker("g95"),
		flagset.ModuleFlag("-fmod=$(DEST)"),
	)

	r.Define("nag",
		flagset.Compiler("nagfor"),
		flagset.PreprocessorFlags("-DNAGF95"),
		flagset.Linker("nagfor"),
		flagset.ModuleFlag("-mdir $(DEST)"),
	)

	r.Define("pgf90",
		flagset.Compiler("pgf90"),
		flagset.CompileFlags("-O3 -Mbounds"),
		flagset.Linker("pgf90"),
		flagset.ModuleFlag("-module $(DEST)"),
	)
	r.mustDerive("pgf90_mpi", "pgf90", mpi()...)

	r.Define("pathf95",
		flagset.Compiler("pathf95"),
		flagset.Linker("pathf95"),
		flagset.ModuleFlag("-module $(DEST)"),
	)

	return r
}
