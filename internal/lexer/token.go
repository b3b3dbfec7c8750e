// Package lexer provides tokenization for single lines of PTX source text.
package lexer

import (
	"github.com/gpiler/ptxlink/internal/types"
)

// Token is a token with kind and line-relative span.
type Token struct {
	Kind TokenKind
	Span types.Span
}

// Text returns the token's text within line.
func (t Token) Text(line string) string {
	return t.Span.Text(line)
}

// TokenKind identifies a token type.
type TokenKind int

const (
	// === Special ===

	// TokError is a byte the lexer does not recognize.
	TokError TokenKind = iota
	// TokEOF is end of line.
	TokEOF
	// TokComment is a "//" comment or the portion of a "/* */" comment on this line.
	TokComment

	// === Names ===

	// TokDirective is a dot-prefixed directive or type (.visible, .func, .u32).
	TokDirective
	// TokIdent is an identifier, opcode, or symbol (ld.param.u32, _Z8mapitfooiPiS_, $L__BB0_2).
	TokIdent
	// TokRegister is a %-prefixed register or special register (%r1, %tid.x).
	TokRegister

	// === Literals ===

	// TokNumber is an integer or float literal (42, 0x1F, 0f3F800000).
	TokNumber
	// TokString is a quoted string literal.
	TokString

	// === Punctuation ===

	// TokComma is ','.
	TokComma
	// TokSemicolon is ';'.
	TokSemicolon
	// TokColon is ':'.
	TokColon
	// TokLParen is '('.
	TokLParen
	// TokRParen is ')'.
	TokRParen
	// TokLBracket is '['.
	TokLBracket
	// TokRBracket is ']'.
	TokRBracket
	// TokLBrace is '{'.
	TokLBrace
	// TokRBrace is '}'.
	TokRBrace
	// TokLAngle is '<'.
	TokLAngle
	// TokRAngle is '>'.
	TokRAngle
	// TokAt is '@' (predicate guard).
	TokAt
	// TokBang is '!'.
	TokBang
	// TokPlus is '+'.
	TokPlus
	// TokMinus is '-'.
	TokMinus
	// TokOperator is any other single-byte operator (=, |, &, *, /, ...).
	TokOperator
)

func (k TokenKind) String() string {
	switch k {
	case TokError:
		return "ERROR"
	case TokEOF:
		return "EOF"
	case TokComment:
		return "COMMENT"
	case TokDirective:
		return "DIRECTIVE"
	case TokIdent:
		return "IDENT"
	case TokRegister:
		return "REGISTER"
	case TokNumber:
		return "NUMBER"
	case TokString:
		return "STRING"
	case TokComma:
		return "COMMA"
	case TokSemicolon:
		return "SEMICOLON"
	case TokColon:
		return "COLON"
	case TokLParen:
		return "LPAREN"
	case TokRParen:
		return "RPAREN"
	case TokLBracket:
		return "LBRACKET"
	case TokRBracket:
		return "RBRACKET"
	case TokLBrace:
		return "LBRACE"
	case TokRBrace:
		return "RBRACE"
	case TokLAngle:
		return "LANGLE"
	case TokRAngle:
		return "RANGLE"
	case TokAt:
		return "AT"
	case TokBang:
		return "BANG"
	case TokPlus:
		return "PLUS"
	case TokMinus:
		return "MINUS"
	case TokOperator:
		return "OPERATOR"
	default:
		return "UNKNOWN"
	}
}

// IsOperand returns true if tokens of this kind can be an instruction operand.
func (k TokenKind) IsOperand() bool {
	switch k {
	case TokIdent, TokRegister, TokNumber, TokString:
		return true
	default:
		return false
	}
}
