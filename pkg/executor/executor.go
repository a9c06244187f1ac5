// Package executor carries resolved operations to the host's package
// transaction tool. Its contract with the policy engine is narrow:
// accept the resolved operation list, report success or failure.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pkgdrift/pkgdrift/pkg/pkgset"
)

// Executor executes a resolved operation list against the host.
type Executor interface {
	Execute(ctx context.Context, ops []pkgset.Operation) error
}

// WriteScript serializes resolved operations into the line-oriented
// transaction script the package tool consumes: one directive per line,
// "erase"/"install"/"upgrade" followed by the package NEVRA. A replace
// becomes an upgrade of its targets so the tool runs the new package's
// pre/post scripts before the old package's post-uninstall.
func WriteScript(w io.Writer, ops []pkgset.Operation) error {
	for _, op := range ops {
		switch op.Kind {
		case pkgset.OperationDelete:
			for _, p := range op.Sources {
				if _, err := fmt.Fprintf(w, "erase %s\n", p); err != nil {
					return err
				}
			}
		case pkgset.OperationInstall:
			for _, p := range op.Targets {
				if _, err := fmt.Fprintf(w, "install %s\n", p); err != nil {
					return err
				}
			}
		case pkgset.OperationReplace:
			for _, p := range op.Targets {
				if _, err := fmt.Fprintf(w, "upgrade %s\n", p); err != nil {
					return err
				}
			}
		default:
			// The engine never emits no-change operations.
			return fmt.Errorf("cannot serialize %s operation", op.Kind)
		}
	}
	return nil
}

// TransactionExecutor feeds the transaction script to an external
// package tool over stdin and interprets its exit status.
type TransactionExecutor struct {
	// Command is the transaction tool invocation; the first element is
	// the binary, the rest its arguments.
	Command []string

	// DryRun logs the script instead of invoking the tool.
	DryRun bool

	log zerolog.Logger
}

// New creates a transaction executor for the given tool invocation.
func New(command []string, dryRun bool, logger zerolog.Logger) *TransactionExecutor {
	return &TransactionExecutor{
		Command: command,
		DryRun:  dryRun,
		log:     logger.With().Str("component", "executor").Logger(),
	}
}

// Execute serializes the operations and runs the transaction tool.
// An empty operation list is a successful no-op.
func (e *TransactionExecutor) Execute(ctx context.Context, ops []pkgset.Operation) error {
	if len(ops) == 0 {
		e.log.Info().Msg("Nothing to do")
		return nil
	}
	if len(e.Command) == 0 {
		return fmt.Errorf("no transaction command configured")
	}

	var script bytes.Buffer
	if err := WriteScript(&script, ops); err != nil {
		return fmt.Errorf("failed to serialize operations: %w", err)
	}

	if e.DryRun {
		e.log.Info().
			Int("operations", len(ops)).
			Str("script", script.String()).
			Msg("Dry run, transaction not executed")
		return nil
	}

	cmd := exec.CommandContext(ctx, e.Command[0], e.Command[1:]...)
	cmd.Stdin = &script
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.log.Info().
		Int("operations", len(ops)).
		Str("command", strings.Join(e.Command, " ")).
		Msg("Executing package transaction")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("package transaction failed: %w (stderr: %s)",
			err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
