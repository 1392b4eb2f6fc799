package gnbasync

import (
	"errors"
	"fmt"

	"github.com/joeycumines/gnbasync/internal/logx"
)

// Sentinel and typed errors for fatal programming errors and recoverable
// back-pressure conditions. Fatal conditions are never returned as plain
// errors to a caller that could silently ignore them: they go through
// fatal, which logs then panics, giving immediate termination with a
// diagnostic.
var (
	// ErrEmptyClosure is raised by invoking an empty Closure.
	ErrEmptyClosure = errors.New("gnbasync: invoke of empty closure")
	// ErrFrameNotSuspended is raised destroying a running frame
	// (Frame.Destroy) or cancelling a running procedure (Proc.Cancel).
	ErrFrameNotSuspended = errors.New("gnbasync: frame is not suspended")
	// ErrTaskAlreadyObserved names a task result that has already been
	// consumed by a previous Wait/Await. No operation in this package raises
	// it: Task.Wait and Await on a completed Task return its result again.
	ErrTaskAlreadyObserved = errors.New("gnbasync: task result already observed")
	// ErrTransactionActive is raised creating a transaction on a
	// single-channel transaction that already has one live.
	ErrTransactionActive = errors.New("gnbasync: transaction already active")
	// ErrIndexedSlotOverwrite is raised setting an already-set indexed
	// transaction slot.
	ErrIndexedSlotOverwrite = errors.New("gnbasync: indexed transaction slot already set")
	// ErrQueueFull is the sentinel wrapped by callers that need an error
	// rather than a bool for a failed TryPush/Execute/Defer.
	ErrQueueFull = errors.New("gnbasync: queue full")
	// ErrDurationOutOfRange is raised setting a timer duration above
	// MaxDuration.
	ErrDurationOutOfRange = errors.New("gnbasync: duration out of range")
)

// OverwriteError describes a logged, non-fatal warning: a single-channel
// transaction value overwrite, where the later value wins.
type OverwriteError struct {
	Channel string
}

func (e *OverwriteError) Error() string {
	return fmt.Sprintf("gnbasync: transaction %q value overwritten, later value wins", e.Channel)
}

// fatalHandler is the terminal action for a fatal programming error. It is a
// package variable, not a direct call to panic, so tests can intercept fatal
// conditions and assert on them without crashing the test binary.
var fatalHandler = func(msg string) {
	panic(msg)
}

// SetFatalHandler overrides the terminal action taken for a fatal
// programming error, returning a restore func. Exported so packages built
// on top of this one (timer, transaction) can assert fatal conditions in
// their own tests without a panic/recover dance.
func SetFatalHandler(h func(string)) (restore func()) {
	old := fatalHandler
	fatalHandler = h
	return func() { fatalHandler = old }
}

// fatal logs err at error level (if log is non-nil) and then invokes
// fatalHandler, terminating the goroutine that hit the programming error.
func fatal(log logx.Logger, err error, kv ...any) {
	if log != nil {
		log.Error(err.Error(), kv...)
	}
	fatalHandler(err.Error())
}

// FatalDurationOutOfRange raises ErrDurationOutOfRange as a fatal
// programming error, for use by packages (e.g. timer) that validate a
// duration against MaxDuration but live outside this package.
func FatalDurationOutOfRange(log logx.Logger, d uint32) {
	fatal(log, ErrDurationOutOfRange, "duration", d)
}

// FatalTransactionActive raises ErrTransactionActive as a fatal programming
// error, for use by the transaction package.
func FatalTransactionActive(log logx.Logger) {
	fatal(log, ErrTransactionActive)
}

// FatalIndexedSlotOverwrite raises ErrIndexedSlotOverwrite as a fatal
// programming error, for use by the transaction package.
func FatalIndexedSlotOverwrite(log logx.Logger, id int) {
	fatal(log, ErrIndexedSlotOverwrite, "id", id)
}
