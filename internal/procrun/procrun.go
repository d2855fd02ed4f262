// Package procrun is the process-runner service of §4.2: spawning a
// subprocess and waiting for it, or replacing the current process image.
// Grounded on the teacher's (github.com/distr1/distri) habit of invoking
// external commands with exec.Command and logging the argv before running
// it (see internal/build/build.go's buildinenv, cmd/distri/distri.go).
package procrun

import (
	"log"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// Arg is one element of an argv vector: either a literal string or a path
// value, converted to its native string form only at the syscall boundary.
type Arg struct {
	lit   string
	path  pather
	isLit bool
}

// pather is implemented by pathmodel.Abs and pathmodel.Rel; kept as an
// unexported interface here so procrun does not need to import pathmodel
// just to accept its String() method, avoiding an import cycle with
// packages that build argv from both literals and paths.
type pather interface {
	String() string
}

// Lit wraps a literal argv string.
func Lit(s string) Arg { return Arg{lit: s, isLit: true} }

// Path wraps a path value; its native string form is substituted when the
// argv is materialized.
func Path(p pather) Arg { return Arg{path: p} }

func (a Arg) String() string {
	if a.isLit {
		return a.lit
	}
	return a.path.String()
}

// Argv renders args to a plain []string, suitable for exec.Command or execve.
func Argv(args []Arg) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.String()
	}
	return out
}

// Runner executes subprocesses on behalf of the toolchain façade and the
// plugin-build pipeline.
type Runner struct {
	Log *log.Logger
}

// New returns a Runner logging to l, defaulting to a stderr logger.
func New(l *log.Logger) *Runner {
	if l == nil {
		l = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Runner{Log: l}
}

// SpawnAndWait forks, execs argv[0] with argv, and blocks until it exits.
// The return value is the process exit status when >= 0, or the negated
// terminating signal number when < 0.
func (r *Runner) SpawnAndWait(argv []Arg) (int, error) {
	rendered := Argv(argv)
	if len(rendered) == 0 {
		return 0, xerrors.New("procrun: empty argv")
	}
	r.Log.Printf("+ %v", rendered)
	cmd := exec.Command(rendered[0], rendered[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if xerrors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(unix.WaitStatus); ok {
			if ws.Signaled() {
				return -int(ws.Signal()), nil
			}
			return ws.ExitStatus(), nil
		}
		return exitErr.ExitCode(), nil
	}
	return 0, xerrors.Errorf("%v: %w", rendered, err)
}

// Exec replaces the current process image with argv[0], inheriting the
// environment. It never returns on success.
func Exec(argv []Arg) error {
	rendered := Argv(argv)
	if len(rendered) == 0 {
		return xerrors.New("procrun: empty argv")
	}
	bin, err := exec.LookPath(rendered[0])
	if err != nil {
		return xerrors.Errorf("exec %v: %w", rendered, err)
	}
	log.Printf("+ exec %v", rendered)
	if err := unix.Exec(bin, rendered, os.Environ()); err != nil {
		return xerrors.Errorf("exec %v: %w", rendered, err)
	}
	panic("unreachable: unix.Exec returned without error")
}
