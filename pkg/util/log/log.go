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

// Package log provides a minimal leveled, context-aware logger. Messages are
// prefixed with the logtags carried by the context, which is how the
// optimizer attaches per-query information to its trace output.
package log

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/logtags"
)

// Severity identifies the importance of a log entry.
type Severity int

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning is for messages that need attention but do not fail
	// the operation.
	SeverityWarning
	// SeverityError is for messages describing a failed operation.
	SeverityError
	// SeverityFatal terminates the process after logging.
	SeverityFatal
)

var severityName = [...]string{"I", "W", "E", "F"}

// vLevel is the current verbosity level, settable at runtime.
var vLevel int32

var logger = stdlog.New(os.Stderr, "", stdlog.LstdFlags|stdlog.Lmicroseconds)

// SetVerbosity sets the verbosity level used by V and VEventf.
func SetVerbosity(level int) {
	atomic.StoreInt32(&vLevel, int32(level))
}

// V returns true if verbosity is at or above the requested level. Callers
// use it to avoid building expensive trace messages that would be discarded.
func V(level int) bool {
	return atomic.LoadInt32(&vLevel) >= int32(level)
}

func makeMessage(ctx context.Context, format string, args []interface{}) string {
	var buf strings.Builder
	if tags := logtags.FromContext(ctx); tags != nil {
		buf.WriteByte('[')
		tags.FormatToString(&buf)
		buf.WriteString("] ")
	}
	if len(args) == 0 {
		buf.WriteString(format)
	} else {
		fmt.Fprintf(&buf, format, args...)
	}
	return buf.String()
}

func output(ctx context.Context, s Severity, format string, args []interface{}) {
	msg := makeMessage(ctx, format, args)
	logger.Printf("%s %s", severityName[s], msg)
	if s == SeverityFatal {
		os.Exit(255)
	}
}

// Infof logs an informational message.
func Infof(ctx context.Context, format string, args ...interface{}) {
	output(ctx, SeverityInfo, format, args)
}

// Warningf logs a warning.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	output(ctx, SeverityWarning, format, args)
}

// Errorf logs an error.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	output(ctx, SeverityError, format, args)
}

// Fatalf logs and terminates the process.
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	output(ctx, SeverityFatal, format, args)
}

// VEventf logs a trace event if verbosity is at or above the given level.
func VEventf(ctx context.Context, level int, format string, args ...interface{}) {
	if V(level) {
		output(ctx, SeverityInfo, format, args)
	}
}
