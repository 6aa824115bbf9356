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

package tree

import (
	"fmt"
	"strconv"

	"github.com/bjm1244/raptordb/pkg/sql/types"
	"github.com/cockroachdb/apd"
	"github.com/cockroachdb/errors"
)

// Datum is a runtime value. NULL sorts before every other value; values of
// different non-numeric families never reach Compare (the binder rejects
// such comparisons), while mixed numeric values compare by numeric value.
type Datum interface {
	fmt.Stringer

	// ResolvedType returns the semantic type of the datum.
	ResolvedType() *types.T

	// Compare returns -1, 0 or 1 according to the SQL ordering of the two
	// values.
	Compare(other Datum) int
}

// DInt is an INT datum.
type DInt int64

// DFloat is a FLOAT datum.
type DFloat float64

// DString is a STRING datum.
type DString string

// DBool is a BOOL datum.
type DBool bool

// DDecimal is a DECIMAL datum backed by an arbitrary-precision value.
type DDecimal struct {
	apd.Decimal
}

type dNull struct{}

// DNull is the singleton NULL datum.
var DNull Datum = dNull{}

// DBoolTrue and DBoolFalse are the canonical bool datums.
var (
	DBoolTrue  Datum = DBool(true)
	DBoolFalse Datum = DBool(false)
)

// DecimalCtx is the apd context used for decimal arithmetic and conversion.
var DecimalCtx = apd.BaseContext.WithPrecision(20)

// NewDInt allocates a DInt.
func NewDInt(i int64) Datum { return DInt(i) }

// NewDString allocates a DString.
func NewDString(s string) Datum { return DString(s) }

// ParseDDecimal converts the literal text into a DDecimal.
func ParseDDecimal(s string) (Datum, error) {
	d := &DDecimal{}
	if _, _, err := d.SetString(s); err != nil {
		return nil, errors.Wrapf(err, "could not parse %q as decimal", s)
	}
	return d, nil
}

func (d DInt) ResolvedType() *types.T      { return types.Int }
func (d DFloat) ResolvedType() *types.T    { return types.Float }
func (d DString) ResolvedType() *types.T   { return types.String }
func (d DBool) ResolvedType() *types.T     { return types.Bool }
func (d *DDecimal) ResolvedType() *types.T { return types.Decimal }
func (dNull) ResolvedType() *types.T       { return types.Unknown }

func (d DInt) String() string    { return strconv.FormatInt(int64(d), 10) }
func (d DFloat) String() string  { return strconv.FormatFloat(float64(d), 'g', -1, 64) }
func (d DString) String() string { return `'` + string(d) + `'` }
func (d DBool) String() string {
	if d {
		return "true"
	}
	return "false"
}
func (d *DDecimal) String() string { return d.Decimal.String() }
func (dNull) String() string       { return "NULL" }

// asDecimal converts any numeric datum into an apd value.
func asDecimal(d Datum) (*apd.Decimal, bool) {
	switch t := d.(type) {
	case DInt:
		var res apd.Decimal
		res.SetInt64(int64(t))
		return &res, true
	case DFloat:
		var res apd.Decimal
		if _, err := res.SetFloat64(float64(t)); err != nil {
			return nil, false
		}
		return &res, true
	case *DDecimal:
		return &t.Decimal, true
	}
	return nil, false
}

func compareNumeric(a, b Datum) int {
	da, ok1 := asDecimal(a)
	db, ok2 := asDecimal(b)
	if !ok1 || !ok2 {
		panic(errors.AssertionFailedf("cannot compare %T to %T", a, b))
	}
	return da.Cmp(db)
}

func (d DInt) Compare(other Datum) int {
	if other == DNull {
		return 1
	}
	if o, ok := other.(DInt); ok {
		switch {
		case d < o:
			return -1
		case d > o:
			return 1
		}
		return 0
	}
	return compareNumeric(d, other)
}

func (d DFloat) Compare(other Datum) int {
	if other == DNull {
		return 1
	}
	return compareNumeric(d, other)
}

func (d *DDecimal) Compare(other Datum) int {
	if other == DNull {
		return 1
	}
	return compareNumeric(d, other)
}

func (d DString) Compare(other Datum) int {
	if other == DNull {
		return 1
	}
	o, ok := other.(DString)
	if !ok {
		panic(errors.AssertionFailedf("cannot compare DString to %T", other))
	}
	switch {
	case d < o:
		return -1
	case d > o:
		return 1
	}
	return 0
}

func (d DBool) Compare(other Datum) int {
	if other == DNull {
		return 1
	}
	o, ok := other.(DBool)
	if !ok {
		panic(errors.AssertionFailedf("cannot compare DBool to %T", other))
	}
	switch {
	case !bool(d) && bool(o):
		return -1
	case bool(d) && !bool(o):
		return 1
	}
	return 0
}

func (dNull) Compare(other Datum) int {
	if other == DNull {
		return 0
	}
	return -1
}
