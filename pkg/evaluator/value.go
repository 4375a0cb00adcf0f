// Package evaluator implements the spell tree-walking evaluator.
package evaluator

import (
	"strconv"
)

// Value is the interface for all spell runtime values.
// Every value has a canonical text rendering which is what programs print,
// compare for equality and test for truthiness.
type Value interface {
	Render() string
	TypeName() string
	value() // sealed marker
}

// Int is a 64-bit signed integer.
type Int struct {
	Value int64
}

func (v Int) Render() string   { return strconv.FormatInt(v.Value, 10) }
func (v Int) TypeName() string { return "int" }
func (Int) value()             {}

// Bool renders as "true" or "false".
type Bool struct {
	Value bool
}

func (v Bool) Render() string   { return strconv.FormatBool(v.Value) }
func (v Bool) TypeName() string { return "bool" }
func (Bool) value()             {}

// Text is a string value. List and mapping literals also evaluate to Text
// holding their rendered form.
type Text struct {
	Value string
}

func (v Text) Render() string   { return v.Value }
func (v Text) TypeName() string { return "text" }
func (Text) value()             {}

// Builtin marks a name bound to a built-in function.
type Builtin struct {
	Name string
}

func (Builtin) Render() string   { return "Builtin" }
func (Builtin) TypeName() string { return "builtin" }
func (Builtin) value()           {}

// Function marks a name bound by an Incantation declaration.
type Function struct {
	Name string
}

func (Function) Render() string   { return "Function" }
func (Function) TypeName() string { return "function" }
func (Function) value()           {}

// Class marks a name bound by a Magical Creature declaration.
type Class struct {
	Name string
}

func (Class) Render() string   { return "Class" }
func (Class) TypeName() string { return "class" }
func (Class) value()           {}

// NewInt creates an integer value.
func NewInt(n int64) Value {
	return Int{Value: n}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewText creates a text value.
func NewText(s string) Value {
	return Text{Value: s}
}

// Empty is the value produced by calls that return nothing.
func Empty() Value {
	return Text{}
}

// Truthy reports whether v counts as true in a condition: its rendering
// is exactly "true" or "1".
func Truthy(v Value) bool {
	r := v.Render()
	return r == "true" || r == "1"
}

// IsTrue reports whether v renders exactly as "true". Logical operators
// use this stricter rule.
func IsTrue(v Value) bool {
	return v.Render() == "true"
}

// ToInt coerces v to an integer. Int values pass through; anything else
// must render as a base-10 integer.
func ToInt(v Value) (int64, bool) {
	if i, ok := v.(Int); ok {
		return i.Value, true
	}
	n, err := strconv.ParseInt(v.Render(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Equal compares two values by rendering.
func Equal(a, b Value) bool {
	return a.Render() == b.Render()
}
