package descriptor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// External invokes a descriptor-calculation tool once per SMILES.  The
// tool must print one "name=value" pair per line to stdout; a non-zero
// exit or unparsable output counts as a failed computation for that
// structure only.
type External struct {
	command string
	args    []string
	timeout time.Duration
	log     logging.Logger
}

// NewExternal builds an External runner.  Each argument may contain the
// placeholder {smiles}, replaced per invocation.
func NewExternal(command string, args []string, timeout time.Duration, log logging.Logger) *External {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &External{
		command: command,
		args:    args,
		timeout: timeout,
		log:     log.Named("descriptor"),
	}
}

// Compute runs the tool for one SMILES and parses its output.
func (e *External) Compute(ctx context.Context, smiles string) (map[string]float64, error) {
	if e.command == "" {
		return nil, errors.New(errors.ErrCodeToolNotFound, "descriptor command not configured")
	}

	args := make([]string, len(e.args))
	for i, a := range e.args {
		args[i] = strings.ReplaceAll(a, "{smiles}", smiles)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.New(errors.ErrCodeTimeout, "descriptor tool timed out").
				WithDetail(fmt.Sprintf("smiles=%s timeout=%s", smiles, e.timeout))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDescriptorFailed, "descriptor tool failed").
			WithDetail(fmt.Sprintf("smiles=%s stderr=%s", smiles, strings.TrimSpace(stderr.String())))
	}

	values, err := parseOutput(stdout.Bytes())
	if err != nil {
		return nil, err.WithDetail("smiles=" + smiles)
	}
	if len(values) == 0 {
		return nil, errors.New(errors.ErrCodeDescriptorFailed, "descriptor tool produced no values").
			WithDetail("smiles=" + smiles)
	}
	return values, nil
}

// parseOutput reads "name=value" lines, skipping blanks and comments.
func parseOutput(out []byte) (map[string]float64, *errors.AppError) {
	values := map[string]float64{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, raw, found := strings.Cut(line, "=")
		if !found {
			return nil, errors.New(errors.ErrCodeDescriptorFailed, "malformed descriptor line").
				WithDetail("line=" + line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeDescriptorFailed, "non-numeric descriptor value").
				WithDetail("line=" + line)
		}
		values[strings.TrimSpace(name)] = v
	}
	return values, nil
}
