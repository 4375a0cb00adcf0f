package evaluator_test

import (
	"testing"

	"github.com/spelllang/spell/pkg/evaluator"
)

func TestRender(t *testing.T) {
	tests := []struct {
		value evaluator.Value
		want  string
	}{
		{evaluator.NewInt(0), "0"},
		{evaluator.NewInt(-42), "-42"},
		{evaluator.NewBool(true), "true"},
		{evaluator.NewBool(false), "false"},
		{evaluator.NewText("hello"), "hello"},
		{evaluator.Empty(), ""},
		{evaluator.Builtin{Name: "len"}, "Builtin"},
		{evaluator.Function{Name: "f"}, "Function"},
		{evaluator.Class{Name: "Owl"}, "Class"},
	}

	for _, tt := range tests {
		if got := tt.value.Render(); got != tt.want {
			t.Errorf("%#v.Render() = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		value evaluator.Value
		want  string
	}{
		{evaluator.NewInt(1), "int"},
		{evaluator.NewBool(true), "bool"},
		{evaluator.NewText(""), "text"},
		{evaluator.Builtin{}, "builtin"},
		{evaluator.Function{}, "function"},
		{evaluator.Class{}, "class"},
	}

	for _, tt := range tests {
		if got := tt.value.TypeName(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestValueTruthiness(t *testing.T) {
	tests := []struct {
		value    evaluator.Value
		expected bool
	}{
		{evaluator.NewBool(true), true},
		{evaluator.NewBool(false), false},
		{evaluator.NewInt(1), true},
		{evaluator.NewInt(0), false},
		{evaluator.NewInt(2), false},
		{evaluator.NewText("true"), true},
		{evaluator.NewText("1"), true},
		{evaluator.NewText("TRUE"), false},
		{evaluator.NewText(""), false},
		{evaluator.Function{}, false},
	}

	for _, tt := range tests {
		if got := evaluator.Truthy(tt.value); got != tt.expected {
			t.Errorf("Truthy(%#v) = %v, want %v", tt.value, got, tt.expected)
		}
	}
}

func TestIsTrue(t *testing.T) {
	if !evaluator.IsTrue(evaluator.NewText("true")) {
		t.Error(`text "true" should be true`)
	}
	if evaluator.IsTrue(evaluator.NewInt(1)) {
		t.Error("1 is truthy but not true")
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		value evaluator.Value
		want  int64
		ok    bool
	}{
		{evaluator.NewInt(5), 5, true},
		{evaluator.NewText("12"), 12, true},
		{evaluator.NewText("-3"), -3, true},
		{evaluator.NewText(" 3"), 0, false},
		{evaluator.NewText("3x"), 0, false},
		{evaluator.NewText(""), 0, false},
		{evaluator.NewBool(true), 0, false},
		{evaluator.Builtin{Name: "len"}, 0, false},
	}

	for _, tt := range tests {
		got, ok := evaluator.ToInt(tt.value)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ToInt(%#v) = %d, %v; want %d, %v", tt.value, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEqual(t *testing.T) {
	if !evaluator.Equal(evaluator.NewInt(7), evaluator.NewText("7")) {
		t.Error("values with the same rendering should be equal")
	}
	if evaluator.Equal(evaluator.NewBool(true), evaluator.NewInt(1)) {
		t.Error("true and 1 render differently")
	}
}
