package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ariera/interviews-scheduler/internal/config"
	"github.com/ariera/interviews-scheduler/pkg/history"
)

// AppContext holds the dependencies shared across all commands.
type AppContext struct {
	Cfg     *config.Config
	History *history.Store // nil unless Cfg.HistoryDSN is set
	Logger  *zap.Logger
	Ctx     context.Context
}

// Exit codes per the CLI collaborator's contract: 0 success, 1
// validation error, 2 solver infeasible, 3 time limit without solution,
// 4 internal verification failure.
const (
	ExitSuccess             = 0
	ExitValidationError     = 1
	ExitInfeasible          = 2
	ExitTimeLimitNoSolution = 3
	ExitInternalFailure     = 4
)

// CLIError pairs an error with the exit code main should terminate with,
// so RunE can return ordinary Go errors while still driving the CLI's
// multi-code exit contract.
type CLIError struct {
	Code int
	Err  error
}

func (e *CLIError) Error() string { return e.Err.Error() }
func (e *CLIError) Unwrap() error { return e.Err }

// ExitCode reports the process exit code for err, defaulting to
// ExitValidationError for any error not wrapped in a *CLIError.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ce *CLIError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ExitValidationError
}
