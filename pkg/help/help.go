// Package help holds the spell quick reference and help topics.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spelllang/spell/pkg/stdlib"
)

// Version is the language version reported by the quick reference.
const Version = "v0.1"

// QUICKREF is printed by "spell help" with no topic.
var QUICKREF = `spell ` + Version + ` quick reference

  Wand x = 5                 declare (also Cauldron, SpellBooks)
  x = x + 1                  assign an existing name
  Illuminate(x)              print a value on its own line
  Cast name(a, b)            call a function
  Incantation f(a) { ... }   declare a function
  Magical Creature C(a) Bloodline P { ... }
                             declare a class
  Ifar c { } Elsear { }      if / else (Elsear Ifar chains)
  Persistus c { }            while
  Loopus i = 0; i < 3; i = i + 1 { }
                             for
  Protego { } Alohomora { }  try / catch, the message is bound to error

Commands: run, check, fmt, tokens, repl, help, config
Topics: syntax, values, flow, errors, builtins, diagnostics, examples
Run "spell help <topic>" for details.
`

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `Syntax

Statements are separated by whitespace; there are no semicolons except
between the three clauses of a Loopus header.

Comments: '#' to end of line, or /* ... */ (unterminated block comments run
to end of input).

Literals: integers (42), text in double or single quotes with \n \t \\ \"
\' escapes, lists [1, "a"] and mappings {"k": 1}.

Operators, loosest first:
  ||
  &&
  == !=
  < > <= >=
  + -
  * / %
  ! - (unary)
All binary operators are left-associative.
`,

	"values": `Values

Every value is an integer, a boolean or text, and each has a text
rendering used for output and comparison.

  +          integer sum when both sides are integers, otherwise the
             renderings are joined
  - * / %    both sides must read as integers; / truncates
  == !=      compare renderings
  < > <= >=  numeric for two integers, otherwise text order
  && ||      a side counts as true when it renders as "true"

Text that reads as an integer is converted by - * / % but not by
< > <= >=, so "10" - 3 is 7 while "10" > 9 is false (text order).

A condition holds when its value renders as "true" or "1".

List and mapping literals become text at parse time: [1, "a"] renders as
[1, "a"]; mapping keys are sorted and values quoted.
`,

	"flow": `Control flow

  Ifar cond { ... } Elsear Ifar other { ... } Elsear { ... }
  Persistus cond { ... }
  Loopus init; cond; step { ... }

Each block opens its own scope. A Loopus initializer such as i = 0 declares
i when no visible binding exists. The initializer and step may be a
declaration, an assignment or a Cast call.
`,

	"errors": `Runtime errors

  Undefined variable 'x'.     reading or assigning an undeclared name
  Division by zero.           / or % with a zero right side
  cannot use "a" as an integer

Protego { ... } Alohomora { ... } runs the catch block when the try block
fails; error holds the message inside it. An uncaught error stops the
program with "Runtime Error: <message>".

Iteration budgets (max_iterations) and interrupts cannot be caught.
`,

	"builtins": `Built-in functions

  print(x)   write x on its own line
  len(x)     number of characters in the rendering of x
  str(x)     rendering of x as text
  int(x)     x read as an integer

Calling a user Incantation or Magical Creature reports
"Function call: <name>" on stderr. Calling an unknown name reports
"Function '<name>' is not defined." Both yield empty text.

Run "spell help builtins --index" for the registered list.
`,

	"diagnostics": `Diagnostics

  E_LEX            unknown character or unterminated text
  E_PARSE          malformed program
  E_UNDEFINED      undefined variable at run time
  E_DIV_ZERO       division or remainder by zero
  E_UNKNOWN_OP     unsupported operator
  E_TYPE           value cannot be read as an integer
  E_ARGS           built-in called with the wrong argument count
  E_BUDGET         iteration budget exceeded
  E_CANCELED       run interrupted
  E_IO             output could not be written
  E_UNBOUND        (check) name used without a declaration
  E_DUP_PARAM      (check) repeated parameter name
  E_UNKNOWN_PARENT (check) Bloodline names no declared class
  E_SELF_PARENT    (check) class is its own Bloodline

Lex and parse errors exit with status 2. Runtime errors exit with 0.
`,

	"examples": `Examples

  Wand x = 5
  Illuminate(x)                          # 5

  Ifar 1 == 1 { Illuminate("yes") } Elsear { Illuminate("no") }

  Loopus i = 0; i < 3; i = i + 1 { Illuminate(i) }

  Protego {
    Wand y = 10 / 0
  } Alohomora {
    Illuminate("caught: " + error)       # caught: Division by zero.
  }
`,
}

// TopicList is the display order of Topics.
var TopicList = []string{"syntax", "values", "flow", "errors", "builtins", "diagnostics", "examples"}

// MatchTopic resolves a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	var matches []string
	for _, name := range TopicList {
		if query != "" && strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q", query)
	case 1:
		return matches[0], Topics[matches[0]], nil
	default:
		return "", "", fmt.Errorf("ambiguous help topic %q: %s", query, strings.Join(matches, ", "))
	}
}

// BuiltinIndex lists the built-ins of r with their arity.
func BuiltinIndex(r *stdlib.Registry) string {
	var b strings.Builder
	names := r.Names()
	sort.Strings(names)
	for _, name := range names {
		fn := r.Get(name)
		arity := fmt.Sprintf("%d", fn.Arity)
		if fn.Arity < 0 {
			arity = "any"
		}
		fmt.Fprintf(&b, "  %-8s args: %s\n", name, arity)
	}
	fmt.Fprintf(&b, "Total: %d functions\n", len(names))
	return b.String()
}
