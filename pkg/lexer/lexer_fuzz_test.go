package lexer

import (
	"testing"
)

// FuzzTokenize feeds random inputs to the lexer to catch panics.
// Invalid input must produce an error, never a panic.
func FuzzTokenize(f *testing.F) {
	seeds := []string{
		// Keywords
		`Wand Incantation Cast Illuminate Ifar Elsear`,
		`Loopus Persistus Cauldron SpellBooks Protego Alohomora`,
		`Magical Creature Bloodline Forar in len str int`,
		// Literals
		`42 0 007`,
		`"hello" 'single' "with\nescape" "quote\""`,
		// Operators
		`= ! < > + - * / % & | : == != <= >= && ||`,
		// Delimiters
		`( ) { } , . ; [ ]`,
		// Comments
		`# line comment`,
		`/* block */ x`,
		`/* unterminated`,
		// Mixed
		`Wand x = 5 Illuminate(x)`,
		`Loopus i = 0; i < 3; i = i + 1 { Illuminate(i) }`,
		// Edge cases
		``,
		`   `,
		"\t\n\r",
		`"unterminated`,
		`'`,
		`"\`,
		`@#$^&`,
		"\x00",
		"é",
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		tokens, err := Tokenize(input, "fuzz.spell")
		if err != nil {
			return
		}
		if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokEOF {
			t.Fatalf("token stream for %q does not end with EOF", input)
		}
	})
}
