package server

import (
	"strings"

	"github.com/karlb/termstack/protocol"
)

// shellStateAffecting lists builtins that mutate the calling shell's own
// state (cwd, environment, aliases) and so must run in the existing shell
// session rather than a fresh terminal cell.
var shellStateAffecting = map[string]bool{
	"cd":     true,
	"export": true,
	"unset":  true,
	"alias":  true,
	"unalias": true,
	"source": true,
	".":      true,
	"set":    true,
	"popd":   true,
	"pushd":  true,
}

// Classifier answers the IPC Classify request: whether a candidate command
// line can run in a fresh terminal cell, must run in the existing shell
// session, or is not even syntactically complete.
type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

// Classify returns one of the three server-visible ClassifyOutcome codes.
// The richer shell-side lexing a wrapper would do before ever calling this
// (quoting, globbing, subshell detection) is out of scope; this only covers
// the minimal surface spec.md's Classify response names.
func (c *Classifier) Classify(command string) protocol.ClassifyOutcome {
	if !hasBalancedQuoting(command) {
		return protocol.ClassifyInvalidSyntax
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return protocol.ClassifyNewCell
	}
	if shellStateAffecting[fields[0]] {
		return protocol.ClassifyShellStateAffecting
	}
	return protocol.ClassifyNewCell
}

// hasBalancedQuoting reports whether every single and double quote in
// command is closed, a cheap proxy for "the line is not obviously
// incomplete" without implementing a real shell lexer.
func hasBalancedQuoting(command string) bool {
	var inSingle, inDouble bool
	for i := 0; i < len(command); i++ {
		switch command[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '\\':
			if inDouble || (!inSingle && !inDouble) {
				i++ // skip the escaped character
			}
		}
	}
	return !inSingle && !inDouble
}
