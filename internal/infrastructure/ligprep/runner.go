// Package ligprep converts PDB ligands to PDBQT by invoking an external
// ligand-preparation tool such as prepare_ligand4 or obabel.
package ligprep

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Runner executes the configured ligand-preparation command.
type Runner struct {
	command string
	args    []string
	timeout time.Duration
	log     logging.Logger
}

// NewRunner builds a Runner.  Each argument may contain the placeholders
// {in} and {out}, replaced per invocation with the input PDB path and the
// desired output PDBQT path.
func NewRunner(command string, args []string, timeout time.Duration, log logging.Logger) *Runner {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Runner{
		command: command,
		args:    args,
		timeout: timeout,
		log:     log.Named("ligprep"),
	}
}

// Prepare converts inPath (PDB) to outPath (PDBQT).  The tool's stderr is
// captured into the returned error on failure; a missing output file after
// a zero exit status is also treated as failure.
func (r *Runner) Prepare(ctx context.Context, inPath, outPath string) error {
	if r.command == "" {
		return errors.New(errors.ErrCodeToolNotFound, "ligand-preparation command not configured")
	}
	if _, err := exec.LookPath(r.command); err != nil {
		return errors.Wrap(err, errors.ErrCodeToolNotFound, "ligand-preparation tool not found").
			WithDetail("command=" + r.command)
	}

	args := make([]string, len(r.args))
	for i, a := range r.args {
		a = strings.ReplaceAll(a, "{in}", inPath)
		a = strings.ReplaceAll(a, "{out}", outPath)
		args[i] = a
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.New(errors.ErrCodeTimeout, "ligand preparation timed out").
				WithDetail(fmt.Sprintf("command=%s timeout=%s", r.command, r.timeout))
		}
		return errors.Wrap(err, errors.ErrCodeLigPrepFailed, "ligand preparation failed").
			WithDetail(fmt.Sprintf("command=%s stderr=%s", r.command, strings.TrimSpace(stderr.String())))
	}

	if _, statErr := os.Stat(outPath); statErr != nil {
		return errors.New(errors.ErrCodeLigPrepFailed, "ligand-preparation tool produced no output").
			WithDetail("expected=" + outPath)
	}

	r.log.Debug("ligand prepared",
		logging.String("in", inPath),
		logging.String("out", outPath),
		logging.Duration("elapsed", elapsed))
	return nil
}
