// Package diff marks the words a rewrite added to a text.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Op classifies a token in a word-level edit script.
type Op string

const (
	OpEqual  Op = "equal"
	OpInsert Op = "insert"
	OpDelete Op = "delete"
)

// Change is one token of the edit script from original to updated.
type Change struct {
	Op    Op     `json:"op"`
	Token string `json:"token"`
}

// Changes computes the word-level edit script between two texts. Tokens are
// split on whitespace. A replaced block yields its deletions before its
// insertions. The matcher is deterministic for identical inputs.
func Changes(original, updated string) []Change {
	a := strings.Fields(original)
	b := strings.Fields(updated)

	// Autojunk would stop frequent words like "and" from anchoring a match
	// in long texts, marking them as inserted.
	matcher := difflib.NewMatcherWithJunk(a, b, false, nil)
	var changes []Change
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, tok := range b[op.J1:op.J2] {
				changes = append(changes, Change{Op: OpEqual, Token: tok})
			}
		case 'd':
			for _, tok := range a[op.I1:op.I2] {
				changes = append(changes, Change{Op: OpDelete, Token: tok})
			}
		case 'i':
			for _, tok := range b[op.J1:op.J2] {
				changes = append(changes, Change{Op: OpInsert, Token: tok})
			}
		case 'r':
			for _, tok := range a[op.I1:op.I2] {
				changes = append(changes, Change{Op: OpDelete, Token: tok})
			}
			for _, tok := range b[op.J1:op.J2] {
				changes = append(changes, Change{Op: OpInsert, Token: tok})
			}
		}
	}
	return changes
}

// Highlight returns updated with every inserted word wrapped in "**".
// Deleted words are dropped and unchanged words pass through, all joined by
// single spaces in edit-script order.
func Highlight(original, updated string) string {
	changes := Changes(original, updated)
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		switch c.Op {
		case OpEqual:
			out = append(out, c.Token)
		case OpInsert:
			out = append(out, "**"+c.Token+"**")
		}
	}
	return strings.Join(out, " ")
}

// Stats counts inserted and deleted tokens in an edit script.
func Stats(changes []Change) (insertions, deletions int) {
	for _, c := range changes {
		switch c.Op {
		case OpInsert:
			insertions++
		case OpDelete:
			deletions++
		}
	}
	return insertions, deletions
}
