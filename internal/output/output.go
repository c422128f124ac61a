// Package output renders command results as a JSON envelope or as human
// text, and maps failures to exit codes.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Writer handles output for a command. Warn and the save error handler may
// be called from background goroutines while the command runs.
type Writer struct {
	JSONMode  bool
	QuietMode bool
	Stdout    io.Writer
	Stderr    io.Writer

	mu           sync.Mutex
	warnings     []string
	saveFailures int
	lastSaveErr  string
}

// New creates a Writer on os.Stdout and os.Stderr.
func New(jsonMode, quietMode bool) *Writer {
	return &Writer{
		JSONMode:  jsonMode,
		QuietMode: quietMode,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// Success renders a successful result: a success envelope on Stdout in JSON
// mode, otherwise message.
func (w *Writer) Success(data any, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.JSONMode {
		writeJSONSuccess(w.Stdout, data, message, w.warnings)
		return
	}
	writeHumanSuccess(w.Stdout, message)
}

// Error renders err with code, as an envelope on Stdout in JSON mode or on
// Stderr otherwise, and returns the exit code.
func (w *Writer) Error(err error, code ErrorCode) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.JSONMode {
		writeJSONError(w.Stdout, err, code, w.warnings)
	} else {
		writeHumanError(w.Stderr, err, code)
	}
	return ExitCodeForError(code)
}

// Fail renders err with the code attached by Wrap and returns the exit code.
func (w *Writer) Fail(err error) int {
	return w.Error(err, CodeOf(err))
}

// Info writes an informational message to Stderr. It is a no-op in quiet
// and JSON mode.
func (w *Writer) Info(format string, args ...any) {
	if w.QuietMode || w.JSONMode {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	infoLine.write(w.Stderr, fmt.Sprintf(format, args...))
}

// Warn writes a warning to Stderr, even in quiet mode. In JSON mode the
// warning is held for the envelope instead.
func (w *Writer) Warn(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warnLocked(fmt.Sprintf(format, args...))
}

func (w *Writer) warnLocked(msg string) {
	if w.JSONMode {
		w.warnings = append(w.warnings, msg)
		return
	}
	warnLine.write(w.Stderr, msg)
}

// Warnings returns the warnings held for the JSON envelope.
func (w *Writer) Warnings() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.warnings...)
}

// SaveErrorHandler returns the hook for save and refresh failures, which
// never abort a command. A failure repeating the previous one is counted
// but not reported again, so a broken disk warns once per cause rather than
// on every debounced save.
func (w *Writer) SaveErrorHandler() func(error) {
	return func(err error) {
		w.mu.Lock()
		defer w.mu.Unlock()

		w.saveFailures++
		msg := err.Error()
		if msg == w.lastSaveErr {
			return
		}
		w.lastSaveErr = msg
		w.warnLocked("changes not saved: " + msg)
	}
}

// SaveFailures returns how many failures the save error handler received.
func (w *Writer) SaveFailures() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saveFailures
}
