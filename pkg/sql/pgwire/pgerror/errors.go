// Copyright 2022 The RaptorDB Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pgerror associates SQLSTATE codes with errors. Errors flow through
// the binder and optimizer as ordinary error values (usually thrown as panics
// and recovered at the top-level entry points); the code travels with the
// error so callers can inspect it without string matching.
package pgerror

import (
	"fmt"

	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/cockroachdb/errors"
)

// withCode decorates an error with a SQLSTATE code.
type withCode struct {
	cause error
	code  pgcode.Code
}

var _ error = (*withCode)(nil)

func (w *withCode) Error() string { return w.cause.Error() }
func (w *withCode) Cause() error  { return w.cause }
func (w *withCode) Unwrap() error { return w.cause }

func (w *withCode) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%+v\n-- code: %s", w.cause, w.code)
			return
		}
		fallthrough
	case 's', 'q':
		fmt.Fprintf(s, "%s", w.cause.Error())
	}
}

// New creates an error with a code.
func New(code pgcode.Code, msg string) error {
	return &withCode{cause: errors.NewWithDepth(1, msg), code: code}
}

// Newf creates an error with a code and a format string.
func Newf(code pgcode.Code, format string, args ...interface{}) error {
	return &withCode{cause: errors.NewWithDepthf(1, format, args...), code: code}
}

// WithCandidateCode wraps an existing error with a code. The code is only
// used if the error does not already carry one.
func WithCandidateCode(err error, code pgcode.Code) error {
	if err == nil {
		return nil
	}
	var w *withCode
	if errors.As(err, &w) {
		return err
	}
	return &withCode{cause: err, code: code}
}

// Wrapf wraps an error, adding a prefix message and a code.
func Wrapf(err error, code pgcode.Code, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &withCode{cause: errors.WrapWithDepthf(1, err, format, args...), code: code}
}

// GetPGCode returns the SQLSTATE code carried by err. Errors without a code
// map to Uncategorized, except assertion failures which map to Internal.
func GetPGCode(err error) pgcode.Code {
	var w *withCode
	if errors.As(err, &w) {
		return w.code
	}
	if errors.HasAssertionFailure(err) {
		return pgcode.Internal
	}
	return pgcode.Uncategorized
}

// HasCode returns true if err carries the given code.
func HasCode(err error, code pgcode.Code) bool {
	return err != nil && GetPGCode(err) == code
}
