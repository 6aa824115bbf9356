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

package types

import "fmt"

// Family classifies a semantic type into one of the supported groups. Every
// type checked by the binder belongs to exactly one family.
type Family int

const (
	// UnknownFamily is the family of the NULL literal before it is given a
	// type by its context.
	UnknownFamily Family = iota

	// BoolFamily is the family of boolean types.
	BoolFamily

	// IntFamily is the family of 64-bit signed integer types.
	IntFamily

	// FloatFamily is the family of 64-bit floating point types.
	FloatFamily

	// DecimalFamily is the family of arbitrary-precision decimal types.
	DecimalFamily

	// StringFamily is the family of variable-length string types.
	StringFamily

	// TimestampFamily is the family of date/time types.
	TimestampFamily

	// AnyFamily matches every family. It is used only in builtin function
	// signatures, never as the type of a bound expression.
	AnyFamily
)

// T is the semantic type of a column or scalar expression. Instances are
// immutable; the canonical instances below should be used rather than
// constructing new ones.
type T struct {
	family Family
	name   string
}

// Canonical type instances.
var (
	Unknown   = &T{family: UnknownFamily, name: "unknown"}
	Bool      = &T{family: BoolFamily, name: "bool"}
	Int       = &T{family: IntFamily, name: "int"}
	Float     = &T{family: FloatFamily, name: "float"}
	Decimal   = &T{family: DecimalFamily, name: "decimal"}
	String    = &T{family: StringFamily, name: "string"}
	Timestamp = &T{family: TimestampFamily, name: "timestamp"}
	Any       = &T{family: AnyFamily, name: "any"}
)

// Family returns the family the type belongs to.
func (t *T) Family() Family { return t.family }

// Name returns the SQL-visible name of the type.
func (t *T) Name() string { return t.name }

func (t *T) String() string { return t.name }

// Identical is true if the two types are exactly the same type.
func (t *T) Identical(other *T) bool {
	return t.family == other.family
}

// Equivalent is true if the given type can be used where this type is
// expected without an explicit cast. An Unknown type (untyped NULL) is
// equivalent to everything, as is Any.
func (t *T) Equivalent(other *T) bool {
	if t.family == AnyFamily || other.family == AnyFamily {
		return true
	}
	if t.family == UnknownFamily || other.family == UnknownFamily {
		return true
	}
	return t.family == other.family
}

// IsNumeric is true for the int, float and decimal families.
func (t *T) IsNumeric() bool {
	switch t.family {
	case IntFamily, FloatFamily, DecimalFamily:
		return true
	}
	return false
}

// ByName looks up a canonical type by its SQL name. It is used when binding
// column definitions handed over by the catalog.
func ByName(name string) (*T, bool) {
	switch name {
	case "bool", "boolean":
		return Bool, true
	case "int", "int2", "int4", "int8", "integer", "bigint", "smallint":
		return Int, true
	case "float", "float4", "float8", "real", "double":
		return Float, true
	case "decimal", "numeric", "dec":
		return Decimal, true
	case "string", "text", "varchar", "char":
		return String, true
	case "timestamp", "timestamptz":
		return Timestamp, true
	}
	return nil, false
}

// MustByName is like ByName but panics on an unknown name. For use in tests
// and generated code where the name is known to be valid.
func MustByName(name string) *T {
	t, ok := ByName(name)
	if !ok {
		panic(fmt.Sprintf("unknown type name %q", name))
	}
	return t
}
