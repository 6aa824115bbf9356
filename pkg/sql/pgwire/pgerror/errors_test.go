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

package pgerror_test

import (
	"testing"

	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestGetPGCode(t *testing.T) {
	err := pgerror.Newf(pgcode.UndefinedColumn, "column %q does not exist", "x")
	require.Equal(t, pgcode.UndefinedColumn, pgerror.GetPGCode(err))
	require.Equal(t, `column "x" does not exist`, err.Error())

	// The code survives further wrapping by the errors library.
	wrapped := errors.Wrap(err, "while binding")
	require.Equal(t, pgcode.UndefinedColumn, pgerror.GetPGCode(wrapped))
	require.True(t, pgerror.HasCode(wrapped, pgcode.UndefinedColumn))

	// Errors without a code are uncategorized, except assertion failures.
	require.Equal(t, pgcode.Uncategorized, pgerror.GetPGCode(errors.New("boom")))
	require.Equal(t, pgcode.Internal, pgerror.GetPGCode(errors.AssertionFailedf("bug")))
}

func TestWithCandidateCode(t *testing.T) {
	require.NoError(t, pgerror.WithCandidateCode(nil, pgcode.Syntax))

	// A bare error adopts the candidate code.
	err := pgerror.WithCandidateCode(errors.New("boom"), pgcode.Syntax)
	require.Equal(t, pgcode.Syntax, pgerror.GetPGCode(err))

	// An existing code is not overridden.
	err = pgerror.New(pgcode.DivisionByZero, "division by zero")
	err = pgerror.WithCandidateCode(err, pgcode.Syntax)
	require.Equal(t, pgcode.DivisionByZero, pgerror.GetPGCode(err))
}

func TestWrapf(t *testing.T) {
	cause := errors.New("disk on fire")
	err := pgerror.Wrapf(cause, pgcode.FeatureNotSupported, "reading table %q", "t")
	require.Equal(t, pgcode.FeatureNotSupported, pgerror.GetPGCode(err))
	require.Equal(t, `reading table "t": disk on fire`, err.Error())
	require.True(t, errors.Is(err, cause))

	require.NoError(t, pgerror.Wrapf(nil, pgcode.FeatureNotSupported, "unused"))
}
