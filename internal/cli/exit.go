package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/olamyy/wmt/pkg/check"
	"github.com/olamyy/wmt/pkg/errors"
)

// Process exit codes.
const (
	ExitPass        = 0
	ExitFail        = 1
	ExitUnknown     = 2 // only with --strict-unknown
	ExitUsage       = 3
	ExitInterrupted = 130
)

// ExitError carries the exit code of a command that ran to completion but
// did not pass. The result has already been printed.
type ExitError struct {
	Code    int
	Outcome check.Outcome
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("check outcome: %s", e.Outcome)
}

// outcomeError maps a run outcome to the error the check command returns.
func outcomeError(o check.Outcome, strictUnknown bool) error {
	switch {
	case o == check.OutcomeFail:
		return &ExitError{Code: ExitFail, Outcome: o}
	case o == check.OutcomePartialUnknown && strictUnknown:
		return &ExitError{Code: ExitUnknown, Outcome: o}
	}
	return nil
}

// ExitCode returns the process exit code for the error a command returned.
func ExitCode(err error) int {
	var exit *ExitError
	switch {
	case err == nil:
		return ExitPass
	case stderrors.As(err, &exit):
		return exit.Code
	case stderrors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.IsUsage(err):
		return ExitUsage
	}
	return ExitFail
}

// Silent reports whether err needs no message: the outcome was printed.
func Silent(err error) bool {
	var exit *ExitError
	return stderrors.As(err, &exit)
}
