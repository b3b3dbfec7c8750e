package ptx

import (
	"log/slog"
	"strings"

	"github.com/gpiler/ptxlink/internal/lexer"
	"github.com/gpiler/ptxlink/internal/types"
)

// Instruction is the minimal record of one PTX line: the opcode or
// leading directive, operand tokens, and any comment text. Labels and
// predicate guards are skipped. It is not a validating parse.
type Instruction struct {
	Line     string
	Opcode   string
	Operands []Operand
	Comments []types.Span

	tokens []lexer.Token
}

// Operand is one operand-like token of an instruction.
type Operand struct {
	Text string
	Kind lexer.TokenKind
	Span types.Span
	// Comma reports whether the next significant token is a comma,
	// as for entries of a call operand list.
	Comma bool
}

// Parse tokenizes a line that does not start inside a block comment.
func Parse(line string, logger *slog.Logger) Instruction {
	in, _ := ParseContinuing(line, false, logger)
	return in
}

// ParseContinuing tokenizes a line, starting inside a block comment when
// inComment is true. It returns whether the line ends inside a block comment.
func ParseContinuing(line string, inComment bool, logger *slog.Logger) (Instruction, bool) {
	lx := lexer.Continue(line, inComment, logger)
	toks := lx.Tokenize()

	in := Instruction{Line: line}
	var sig []lexer.Token
	for _, tok := range toks {
		switch tok.Kind {
		case lexer.TokEOF:
		case lexer.TokComment:
			in.Comments = append(in.Comments, tok.Span)
		default:
			sig = append(sig, tok)
		}
	}
	in.tokens = sig

	i := 0
	if len(sig) >= 2 && sig[0].Kind == lexer.TokIdent && sig[1].Kind == lexer.TokColon {
		i = 2
	}
	if i < len(sig) && sig[i].Kind == lexer.TokAt {
		i++
		if i < len(sig) && sig[i].Kind == lexer.TokBang {
			i++
		}
		if i < len(sig) && sig[i].Kind == lexer.TokRegister {
			i++
		}
	}
	// An identifier followed by a comma continues an operand list split
	// across lines; it is not an opcode.
	continued := i+1 < len(sig) && sig[i+1].Kind == lexer.TokComma
	if i < len(sig) && !continued && (sig[i].Kind == lexer.TokIdent || sig[i].Kind == lexer.TokDirective) {
		in.Opcode = sig[i].Text(line)
		i++
	}
	for ; i < len(sig); i++ {
		tok := sig[i]
		if !tok.Kind.IsOperand() {
			continue
		}
		op := Operand{
			Text: tok.Text(line),
			Kind: tok.Kind,
			Span: tok.Span,
		}
		if i+1 < len(sig) && sig[i+1].Kind == lexer.TokComma {
			op.Comma = true
		}
		in.Operands = append(in.Operands, op)
	}
	return in, lx.InBlockComment()
}

// IsDirective reports whether the line leads with a directive rather than
// an opcode.
func (in Instruction) IsDirective() bool {
	return strings.HasPrefix(in.Opcode, ".")
}

// DirectiveClass classifies the leading directive. Lines that lead with an
// opcode, or with a directive PTX does not define, are DirectiveUnknown.
func (in Instruction) DirectiveClass() lexer.DirectiveClass {
	if !in.IsDirective() {
		return lexer.DirectiveUnknown
	}
	class, _ := lexer.LookupDirective(in.Opcode)
	return class
}

// Braces returns the '{' and '}' bytes of the line in order, outside
// comments and string literals.
func (in Instruction) Braces() []byte {
	var out []byte
	for _, tok := range in.tokens {
		switch tok.Kind {
		case lexer.TokLBrace:
			out = append(out, '{')
		case lexer.TokRBrace:
			out = append(out, '}')
		}
	}
	return out
}

// SymbolRefs returns the spans of identifier operands that name symbol
// exactly and are followed by a comma, as entries of a call operand list.
func (in Instruction) SymbolRefs(symbol string) []types.Span {
	var spans []types.Span
	for _, op := range in.Operands {
		if op.Kind == lexer.TokIdent && op.Comma && op.Text == symbol {
			spans = append(spans, op.Span)
		}
	}
	return spans
}

// InComment reports whether the byte offset lies inside a comment.
func (in Instruction) InComment(offset int) bool {
	for _, s := range in.Comments {
		if offset >= int(s.Start) && offset < int(s.End) {
			return true
		}
	}
	return false
}

// ReplaceSpans returns line with each span replaced by repl.
// Spans must be sorted and non-overlapping.
func ReplaceSpans(line string, spans []types.Span, repl string) string {
	if len(spans) == 0 {
		return line
	}
	var b strings.Builder
	b.Grow(len(line) + len(spans)*len(repl))
	prev := 0
	for _, s := range spans {
		b.WriteString(line[prev:s.Start])
		b.WriteString(repl)
		prev = int(s.End)
	}
	b.WriteString(line[prev:])
	return b.String()
}
