// Package link splices a runtime PTX module and a compiled PTX module into
// one listing: the runtime preamble, the compiled kernel body, and the
// runtime declarations with the kernel reference rewritten.
package link

import (
	"fmt"
	"strings"

	"github.com/gpiler/ptxlink/internal/lexer"
)

// BodyEnd selects where the kernel body copied from the compiled module ends.
type BodyEnd string

const (
	// BodyEndEOF copies from the function marker to the end of the module.
	BodyEndEOF BodyEnd = "eof"
	// BodyEndFunction stops after the brace that closes the marked function.
	BodyEndFunction BodyEnd = "function"
)

// MatchPolicy selects how the kernel reference is found in runtime lines.
type MatchPolicy string

const (
	// MatchOperand rewrites only an identifier token equal to the symbol,
	// followed by a comma, outside comments and string literals.
	MatchOperand MatchPolicy = "operand"
	// MatchSubstring rewrites any occurrence of the symbol followed by a
	// comma, including inside comments.
	MatchSubstring MatchPolicy = "substring"
)

// Default marker and rewrite values.
const (
	DefaultFunctionMarker = ".func"
	DefaultVisibleMarker  = ".visible"
	DefaultRewriteFrom    = "_Z8mapitfooiPiS_"
	DefaultRewriteTo      = "mapit"
)

// Rules configures a Splicer.
type Rules struct {
	// FunctionMarker is the line prefix that starts the kernel body in the
	// compiled module.
	FunctionMarker string
	// VisibleMarker is the line prefix that ends the preamble and starts the
	// declarations in the runtime module.
	VisibleMarker string
	// RewriteFrom is the mangled symbol referenced by the runtime wrapper.
	RewriteFrom string
	// RewriteTo is the name the reference is rewritten to.
	RewriteTo string
	BodyEnd   BodyEnd
	Match     MatchPolicy
}

// DefaultRules returns the rules of the mapit runtime.
func DefaultRules() Rules {
	return Rules{
		FunctionMarker: DefaultFunctionMarker,
		VisibleMarker:  DefaultVisibleMarker,
		RewriteFrom:    DefaultRewriteFrom,
		RewriteTo:      DefaultRewriteTo,
		BodyEnd:        BodyEndEOF,
		Match:          MatchOperand,
	}
}

// Validate reports the first invalid field.
func (r Rules) Validate() error {
	switch {
	case r.FunctionMarker == "":
		return fmt.Errorf("function marker is empty")
	case r.VisibleMarker == "":
		return fmt.Errorf("visible marker is empty")
	case r.RewriteFrom == "":
		return fmt.Errorf("rewrite source symbol is empty")
	case r.RewriteTo == "":
		return fmt.Errorf("rewrite target symbol is empty")
	case strings.ContainsAny(r.RewriteTo, " \t,"):
		return fmt.Errorf("rewrite target %q contains whitespace or a comma", r.RewriteTo)
	}
	if err := r.BodyEnd.Validate(); err != nil {
		return err
	}
	if err := r.Match.Validate(); err != nil {
		return err
	}
	return r.Match.ValidateSymbol(r.RewriteFrom)
}

// Validate rejects unknown values.
func (b BodyEnd) Validate() error {
	switch b {
	case BodyEndEOF, BodyEndFunction:
		return nil
	}
	return fmt.Errorf("unknown body end %q (valid: %s, %s)", b, BodyEndEOF, BodyEndFunction)
}

// Validate rejects unknown values.
func (m MatchPolicy) Validate() error {
	switch m {
	case MatchOperand, MatchSubstring:
		return nil
	}
	return fmt.Errorf("unknown match policy %q (valid: %s, %s)", m, MatchOperand, MatchSubstring)
}

// ValidateSymbol rejects a rewrite source the policy can never match.
// The operand policy matches a single identifier token only.
func (m MatchPolicy) ValidateSymbol(sym string) error {
	if m == MatchOperand && sym != "" && !lexer.IsIdent(sym) {
		return fmt.Errorf("rewrite source %q is not a single identifier (use match %s)", sym, MatchSubstring)
	}
	return nil
}
