package display

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestWrapTo(t *testing.T) {
	tests := map[string]struct {
		text  string
		width int
		exp   string
	}{
		"short": {
			text:  "A small room.",
			width: 80,
			exp:   "A small room.",
		},
		"wraps on words": {
			text:  "one two three four",
			width: 9,
			exp:   "one two\nthree\nfour",
		},
		"collapses whitespace": {
			text:  "  a   dusty\n  hall  ",
			width: 80,
			exp:   "a dusty hall",
		},
		"keeps paragraphs": {
			text:  "first\n\n\nsecond",
			width: 80,
			exp:   "first\n\nsecond",
		},
		"empty": {
			text:  "   ",
			width: 80,
			exp:   "",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "wrapped", WrapTo(tt.text, tt.width), tt.exp)
		})
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]struct {
		in  string
		exp string
	}{
		"ascii":   {in: "rat", exp: "Rat"},
		"unicode": {in: "ñandu", exp: "Ñandu"},
		"empty":   {in: "", exp: ""},
		"digit":   {in: "3 rats", exp: "3 rats"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "capitalized", Capitalize(tt.in), tt.exp)
		})
	}
}

func TestSentence(t *testing.T) {
	tests := map[string]struct {
		in  string
		exp string
	}{
		"adds period":    {in: "the door is locked", exp: "The door is locked."},
		"keeps bang":     {in: "you are stunned!", exp: "You are stunned!"},
		"keeps question": {in: "what?", exp: "What?"},
		"trims":          {in: "  no exit  ", exp: "No exit."},
		"empty":          {in: "  ", exp: ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "sentence", Sentence(tt.in), tt.exp)
		})
	}
}
