// Copyright 2020-2023 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reporter

import (
	"sync"

	"github.com/jeffutter/protofaker/ast"
)

// ErrorReporter is responsible for reporting the given error. If the reporter
// returns a non-nil error, compilation/parsing will abort with that error. If
// the reporter returns nil, compilation will proceed, trying to report as many
// other errors as possible. The return value can be the given error or it can
// be a different one, to augment, replace, or downgrade the severity of the
// given error.
type ErrorReporter func(ErrorWithPos) error

// WarningReporter is responsible for reporting the given warning. This is
// used for non-error messages that reflect possible problems. Unlike
// ErrorReporter, warnings are informational only: they never abort
// compilation.
type WarningReporter func(ErrorWithPos)

// Reporter is a sink for errors and warnings encountered while processing a
// proto source file. A nil Reporter is valid to use wherever one is accepted:
// it reports all errors as fatal (aborting further processing on the first
// error) and silently discards all warnings.
type Reporter interface {
	Error(ErrorWithPos) error
	Warning(ErrorWithPos)
}

type reporter struct {
	errs     ErrorReporter
	warnings WarningReporter
}

// NewReporter creates a new Reporter that invokes the given callbacks when
// errors or warnings are reported. Either callback may be nil, in which case
// errors are treated as fatal or warnings are discarded, respectively.
func NewReporter(errs ErrorReporter, warnings WarningReporter) Reporter {
	return &reporter{errs: errs, warnings: warnings}
}

func (r *reporter) Error(err ErrorWithPos) error {
	if r.errs == nil {
		return err
	}
	return r.errs(err)
}

func (r *reporter) Warning(err ErrorWithPos) {
	if r.warnings == nil {
		return
	}
	r.warnings(err)
}

// Handler wraps a Reporter, tracking whether any fatal error has been
// reported so far. It is the type actually threaded through the parser,
// linker, and options interpreter: those components call HandleError or
// HandleErrorf whenever they encounter a problem, and check Error() (or rely
// on a non-nil return from HandleError*) to decide whether to keep going.
//
// A Handler is safe for concurrent use by multiple goroutines.
type Handler struct {
	mu       sync.Mutex
	reporter Reporter
	err      error
}

// NewHandler creates a new Handler that reports errors and warnings to the
// given Reporter. If rep is nil, a default reporter is used: the first error
// reported aborts processing, and all warnings are discarded.
func NewHandler(rep Reporter) *Handler {
	return &Handler{reporter: rep}
}

func (h *Handler) report(err ErrorWithPos) error {
	if h.reporter == nil {
		return err
	}
	return h.reporter.Error(err)
}

func (h *Handler) warn(err ErrorWithPos) {
	if h.reporter == nil {
		return
	}
	h.reporter.Warning(err)
}

// HandleError reports the given error. If a fatal error has already been
// recorded, that earlier error is returned immediately without reporting err
// again. The returned error is non-nil if processing should stop: callers
// are expected to propagate it up the call stack.
func (h *Handler) HandleError(err error) error {
	if err == nil {
		return nil
	}
	ewp, ok := err.(ErrorWithPos)
	if !ok {
		ewp = Error(ast.UnknownSpan(""), err)
	}
	return h.HandleErrorWithPos(ewp)
}

// HandleErrorWithPos reports the given position-aware error.
func (h *Handler) HandleErrorWithPos(err ErrorWithPos) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	reported := h.report(err)
	if reported != nil {
		h.err = reported
	}
	return reported
}

// HandleErrorf constructs an error via fmt.Errorf-like formatting at the
// given position and reports it, same as HandleErrorWithPos.
func (h *Handler) HandleErrorf(pos ast.SourcePosInfo, format string, args ...interface{}) error {
	return h.HandleErrorWithPos(Errorf(pos, format, args...))
}

// HandleWarning reports a warning. Warnings never cause processing to abort.
func (h *Handler) HandleWarning(err error) {
	ewp, ok := err.(ErrorWithPos)
	if !ok {
		ewp = Error(ast.UnknownSpan(""), err)
	}
	h.warn(ewp)
}

// HandleWarningWithPos reports a position-aware warning.
func (h *Handler) HandleWarningWithPos(pos ast.SourcePosInfo, err error) {
	h.HandleWarning(Error(pos, err))
}

// Error returns the first fatal error reported to this handler, or nil if
// none has been reported (yet).
func (h *Handler) Error() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
