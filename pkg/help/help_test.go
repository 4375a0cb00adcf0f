package help

import (
	"strings"
	"testing"

	"github.com/spelllang/spell/pkg/evaluator"
	"github.com/spelllang/spell/pkg/stdlib"
)

func TestQUICKREFNonEmpty(t *testing.T) {
	if len(QUICKREF) == 0 {
		t.Fatal("QUICKREF is empty")
	}
}

func TestQUICKREFContainsVersion(t *testing.T) {
	if !strings.Contains(QUICKREF, Version) {
		t.Errorf("QUICKREF does not contain version string %s", Version)
	}
}

func TestQUICKREFListsTopics(t *testing.T) {
	for _, topic := range TopicList {
		if !strings.Contains(QUICKREF, topic) {
			t.Errorf("QUICKREF does not mention topic %q", topic)
		}
	}
}

func TestQUICKREFListsKeywords(t *testing.T) {
	keywords := []string{"Wand", "Cauldron", "SpellBooks", "Illuminate", "Cast", "Incantation",
		"Magical Creature", "Bloodline", "Ifar", "Elsear", "Persistus", "Loopus", "Protego", "Alohomora"}
	for _, kw := range keywords {
		if !strings.Contains(QUICKREF, kw) {
			t.Errorf("QUICKREF does not mention %q", kw)
		}
	}
}

func TestTopicListMatchesTopics(t *testing.T) {
	for _, name := range TopicList {
		if _, ok := Topics[name]; !ok {
			t.Errorf("TopicList entry %q not in Topics map", name)
		}
	}
	if len(Topics) != len(TopicList) {
		t.Errorf("TopicList has %d entries, Topics has %d", len(TopicList), len(Topics))
	}
}

func TestTopicsNonEmpty(t *testing.T) {
	for name, content := range Topics {
		if len(content) == 0 {
			t.Errorf("topic %q has empty content", name)
		}
	}
}

func TestValuesTopicExplainsMixedComparison(t *testing.T) {
	values := Topics["values"]
	for _, want := range []string{`"10" - 3 is 7`, `"10" > 9 is false`} {
		if !strings.Contains(values, want) {
			t.Errorf("values topic does not mention %s", want)
		}
	}
}

func TestMatchTopicExact(t *testing.T) {
	name, content, err := MatchTopic("syntax")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "syntax" {
		t.Errorf("expected name 'syntax', got %q", name)
	}
	if content == "" {
		t.Error("expected non-empty content")
	}
}

func TestMatchTopicPrefix(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"diag", "diagnostics"},
		{"ex", "examples"},
		{"b", "builtins"},
		{"f", "flow"},
	}
	for _, tt := range tests {
		name, _, err := MatchTopic(tt.query)
		if err != nil {
			t.Errorf("MatchTopic(%q) error: %v", tt.query, err)
			continue
		}
		if name != tt.want {
			t.Errorf("MatchTopic(%q) = %q, want %q", tt.query, name, tt.want)
		}
	}
}

func TestMatchTopicUnknown(t *testing.T) {
	for _, query := range []string{"nonexistent", ""} {
		if _, _, err := MatchTopic(query); err == nil {
			t.Errorf("expected error for %q", query)
		}
	}
}

func TestMatchTopicAmbiguous(t *testing.T) {
	// "e" prefixes both errors and examples
	_, _, err := MatchTopic("e")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected ambiguity error, got %v", err)
	}
}

func TestMatchTopicAllExact(t *testing.T) {
	for _, topic := range TopicList {
		name, content, err := MatchTopic(topic)
		if err != nil {
			t.Errorf("MatchTopic(%q) error: %v", topic, err)
			continue
		}
		if name != topic {
			t.Errorf("MatchTopic(%q) returned name %q", topic, name)
		}
		if content == "" {
			t.Errorf("MatchTopic(%q) returned empty content", topic)
		}
	}
}

func TestBuiltinIndex(t *testing.T) {
	idx := BuiltinIndex(stdlib.Default())
	for _, name := range []string{"print", "len", "str", "int"} {
		if !strings.Contains(idx, name) {
			t.Errorf("BuiltinIndex missing %s", name)
		}
	}
	if !strings.Contains(idx, "Total: 4 functions") {
		t.Errorf("BuiltinIndex should report 4 functions, got:\n%s", idx)
	}
}

func TestBuiltinIndexVariadic(t *testing.T) {
	r := stdlib.NewRegistry()
	r.Register(stdlib.Fn{Name: "echo", Arity: -1, Execute: func(*evaluator.Call) (evaluator.Value, error) {
		return evaluator.Empty(), nil
	}})
	idx := BuiltinIndex(r)
	if !strings.Contains(idx, "args: any") {
		t.Errorf("variadic arity not shown:\n%s", idx)
	}
}
