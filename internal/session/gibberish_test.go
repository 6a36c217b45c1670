package session

import "testing"

func TestIsGibberish(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{name: "empty", text: "", want: true},
		{name: "whitespace only", text: "   \n\t", want: true},
		{name: "allow-listed abbreviation", text: "HR", want: false},
		{name: "allow-listed abbreviation lower case", text: " cto ", want: false},
		{name: "keyboard mash with symbols", text: "asdkjqwoe!@#!@#", want: true},
		{name: "plain sentence", text: "I think the answer is X because Y", want: false},
		{name: "single rune", text: "a", want: true},
		{name: "mostly digits", text: "1283 9912 44", want: true},
		{name: "mostly symbols", text: "1283(!^(^!#(", want: true},
		{name: "long token without vowels", text: "bcdfghjklm", want: true},
		{name: "short token without vowels", text: "sql", want: false},
		{name: "no letter-only token", text: "abc123 def456", want: true},
		{name: "technical answer with punctuation", text: "I'd use a B-tree index, then benchmark it.", want: false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsGibberish(c.text); got != c.want {
				t.Fatalf("IsGibberish(%q) = %v, want %v", c.text, got, c.want)
			}
		})
	}
}
