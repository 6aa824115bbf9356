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

package errorutil

import (
	"runtime"

	"github.com/cockroachdb/errors"
)

// ShouldCatch is used for catching errors thrown as panics. Its argument is
// the object returned by recover(); it succeeds if the object is an error. If
// the error is a runtime.Error, it is converted to an internal error (see
// errors.AssertionFailedf) so that bugs are not reported to users as query
// errors.
func ShouldCatch(obj interface{}) (ok bool, err error) {
	err, ok = obj.(error)
	if ok {
		if _, isRuntime := err.(runtime.Error); isRuntime {
			err = errors.HandleAsAssertionFailure(err)
		}
	}
	return ok, err
}
