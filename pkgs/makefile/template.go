package makefile

// makefileTemplate is executed with the FlagSet variables (FC, FFLAGS, ...)
// plus PROGRAM, SOURCE_CODE, NO_VCS and LINK_LINE.
const makefileTemplate = `#Generated by mkconfig.

SHELL=/bin/bash # For our sanity!

# Get the version control id.  Works with git or if no VCS is used.
# Outputs a string.
VCS_VER:=$(shell set -o pipefail && echo -n \" && ( git log --max-count=1 --pretty=format:%H || echo -n '{{.NO_VCS}}' ) 2> /dev/null | tr -d '\r\n'  && echo -n \")

# Test to see if the working directory contains changes.
# If the working directory contains changes (or is not under version control) then
# the _WORKING_DIR_CHANGES flag is set.
WORKING_DIR_CHANGES := $(shell git diff --quiet --cached && git diff --quiet 2> /dev/null || echo -n "-D_WORKING_DIR_CHANGES")

FC={{.FC}}
FFLAGS=-I $(DEST) {{.FFLAGS}}

CPPDEFS={{.CPPDEFS}} -D_VCS_VER='$(VCS_VER)'
CPPFLAGS={{.CPPFLAGS}} $(WORKING_DIR_CHANGES)

LD={{.LD}}
LDFLAGS={{.LDFLAGS}}
LIBS={{.LIBS}}

SRC=${PWD}
DEST=$(SRC)/dest

# We put compiled objects and modules in $(DEST).  If it doesn't exists, create it.
make_dest:=$(shell	test -e $(DEST) || mkdir -p $(DEST))

# LINK_LINE is passed through to makedepf90.  It is necessary to escape the variable from
# both make (hence $$) and from the shell (hence \$$) to keep the variables from being
# expanded in the .depend file.
# Note the recursive make: this is so that compilation of the environment report is forced
# if any other files are compiled.
LINK_LINE="{{.LINK_LINE}}"

.SUFFIXES:
.SUFFIXES: .f90 .F90

$(DEST)/%.o: */%.f90
	$(FC) -c $(FFLAGS) $< -o $@ {{.MODULE_FLAG}}

$(DEST)/%.o: */%.F90
	$(FC) $(CPPDEFS) $(CPPFLAGS) -c $(FFLAGS) $< -o $@ {{.MODULE_FLAG}}

include .depend

docs:
	cd documentation && $(MAKE) html pdf soft_links

clean:
	-rm -f {$(DEST)/,bin/}{*.mod,*.o,*.x}

# Build from scratch.
new: clean {{.PROGRAM}}

# Dummy target.  Used to force rebuilds.
frc_rebuild: ;

# Set all files to depend upon the FORCE variable.  If FORCE is set to frc_build, then all object
# files are built (even if not necessary).
# sed is used for prettier output, as makedepf90 won't let us have multiple lines in the link statement.
depend .depend:
	makedepf90 -o {{.PROGRAM}} -b "{{escape "$(DEST)"}}" -l $(LINK_LINE) {{.SOURCE_CODE}} -d "{{escape "$(FORCE)"}}" | sed -e 's/;/\n\t/' > .depend

help:
	@echo "Please use \` + "`" + `make <target>' where <target> is one of:"
	@echo "  {{printf "%-20s" .PROGRAM}} [default target] Compile program."
	@echo "  clean                Remove the compiled objects."
	@echo "  new                  Remove all previously compiled objects and re-compile."
	@echo "  depend               Produce the .depend file containing the dependencies."
	@echo "                       Requires the makedepf90 tool to be installed."
	@echo "  docs                 Build documents in pdf and html formats."
	@echo "                       Requires Sphinx to be installed."
	@echo "  help                 Print this help message."
`

// linkCommand is the recipe makedepf90 writes for the program target.
// The command before ';' forces the environment report to be rebuilt.
const linkCommand = "$(MAKE) $(DEST)/environment_report.o FORCE=frc_rebuild ;" +
	"$(FC) -o $@ $(FFLAGS) $(LDFLAGS) -I $(DEST) $(FOBJ) $(LIBS)"
