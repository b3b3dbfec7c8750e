package lexer

import (
	"log/slog"

	"github.com/gpiler/ptxlink/internal/types"
)

type lexerState int

const (
	stateNormal lexerState = iota
	stateInBlockComment
)

// Lexer tokenizes one line of PTX source text.
//
// Block comments may span lines. A Lexer created with Continue starts
// inside a block comment, and InBlockComment reports whether the line
// ended inside one, so callers can carry the state across lines.
type Lexer struct {
	source []byte
	pos    int
	state  lexerState
	types.Logger
}

// New returns a Lexer for a line that does not start inside a block comment.
func New(line string, logger *slog.Logger) *Lexer {
	return &Lexer{
		source: []byte(line),
		state:  stateNormal,
		Logger: types.Logger{L: logger},
	}
}

// Continue returns a Lexer for a line that starts inside a block comment
// when inComment is true.
func Continue(line string, inComment bool, logger *slog.Logger) *Lexer {
	l := New(line, logger)
	if inComment {
		l.state = stateInBlockComment
	}
	return l
}

// InBlockComment reports whether the lexer is inside an unterminated
// block comment.
func (l *Lexer) InBlockComment() bool {
	return l.state == stateInBlockComment
}

func (l *Lexer) traceToken(tok Token) {
	if l.TraceEnabled() {
		l.Trace("token",
			slog.String("kind", tok.Kind.String()),
			slog.Int("start", int(tok.Span.Start)),
			slog.Int("end", int(tok.Span.End)))
	}
}

// IsIdent reports whether s lexes as exactly one identifier token
// covering the whole string.
func IsIdent(s string) bool {
	toks := New(s, nil).Tokenize()
	return len(toks) == 2 &&
		toks[0].Kind == TokIdent &&
		toks[0].Span.Start == 0 && int(toks[0].Span.End) == len(s)
}

// Tokenize consumes the whole line and returns its tokens, ending with TokEOF.
func (l *Lexer) Tokenize() []Token {
	tokens := make([]Token, 0, max(len(l.source)/4, 8))
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			break
		}
	}
	return tokens
}

// NextToken advances the lexer and returns the next token.
// Returns TokEOF when the line is consumed.
func (l *Lexer) NextToken() Token {
	if l.state == stateInBlockComment {
		return l.scanBlockCommentBody(l.pos)
	}
	return l.nextNormalToken()
}

func (l *Lexer) peek() (byte, bool) {
	if l.pos >= len(l.source) {
		return 0, false
	}
	return l.source[l.pos], true
}

func (l *Lexer) peekAt(offset int) (byte, bool) {
	idx := l.pos + offset
	if idx >= len(l.source) {
		return 0, false
	}
	return l.source[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.pos >= len(l.source) {
		return 0, false
	}
	b := l.source[l.pos]
	l.pos++
	return b, true
}

func (l *Lexer) skipWhitespace() {
	for {
		b, ok := l.peek()
		if !ok {
			return
		}
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\f' || b == '\v' {
			l.advance()
		} else {
			return
		}
	}
}

func (l *Lexer) spanFrom(start int) types.Span {
	return types.Span{
		Start: types.ByteOffset(start),
		End:   types.ByteOffset(l.pos),
	}
}

func (l *Lexer) token(kind TokenKind, start int) Token {
	tok := Token{
		Kind: kind,
		Span: l.spanFrom(start),
	}
	l.traceToken(tok)
	return tok
}

var punctuation = [256]TokenKind{
	',': TokComma,
	';': TokSemicolon,
	':': TokColon,
	'(': TokLParen,
	')': TokRParen,
	'[': TokLBracket,
	']': TokRBracket,
	'{': TokLBrace,
	'}': TokRBrace,
	'<': TokLAngle,
	'>': TokRAngle,
	'@': TokAt,
	'!': TokBang,
	'+': TokPlus,
	'-': TokMinus,
	'=': TokOperator,
	'|': TokOperator,
	'&': TokOperator,
	'*': TokOperator,
	'^': TokOperator,
	'~': TokOperator,
	'?': TokOperator,
}

func (l *Lexer) nextNormalToken() Token {
	l.skipWhitespace()

	start := l.pos

	b, ok := l.peek()
	if !ok {
		return l.token(TokEOF, start)
	}

	if b == '/' {
		if next, ok := l.peekAt(1); ok {
			switch next {
			case '/':
				l.pos = len(l.source)
				return l.token(TokComment, start)
			case '*':
				l.advance()
				l.advance()
				l.state = stateInBlockComment
				return l.scanBlockCommentBody(start)
			}
		}
		l.advance()
		return l.token(TokOperator, start)
	}

	if kind := punctuation[b]; kind != TokError {
		l.advance()
		return l.token(kind, start)
	}

	switch {
	case b == '.':
		if next, ok := l.peekAt(1); ok && isAlpha(next) {
			return l.scanDirective()
		}
		l.advance()
		return l.token(TokOperator, start)
	case b == '%':
		return l.scanName(TokRegister)
	case b == '"':
		return l.scanString()
	case isDigit(b):
		return l.scanNumber()
	case isIdentStart(b):
		return l.scanName(TokIdent)
	}

	l.advance()
	if l.Enabled(slog.LevelDebug) {
		l.Log(slog.LevelDebug, "unexpected byte",
			slog.Int("offset", start),
			slog.Int("byte", int(b)))
	}
	return l.token(TokError, start)
}

// scanBlockCommentBody consumes comment text up to and including "*/",
// or to end of line when the comment continues.
func (l *Lexer) scanBlockCommentBody(start int) Token {
	for {
		b, ok := l.advance()
		if !ok {
			break
		}
		if b == '*' {
			if next, ok := l.peek(); ok && next == '/' {
				l.advance()
				l.state = stateNormal
				break
			}
		}
	}
	if l.pos == start {
		return l.token(TokEOF, start)
	}
	return l.token(TokComment, start)
}

func (l *Lexer) scanDirective() Token {
	start := l.pos
	l.advance() // '.'
	for {
		b, ok := l.peek()
		if !ok || !(isAlnum(b) || b == '_') {
			break
		}
		l.advance()
	}
	return l.token(TokDirective, start)
}

// scanName scans identifiers and registers. Dotted suffixes are part of
// the name so opcodes like ld.param.u32 and registers like %tid.x form
// a single token.
func (l *Lexer) scanName(kind TokenKind) Token {
	start := l.pos
	l.advance()
	for {
		b, ok := l.peek()
		if !ok {
			break
		}
		if isIdentPart(b) {
			l.advance()
			continue
		}
		if b == '.' {
			if next, ok := l.peekAt(1); ok && isIdentPart(next) {
				l.advance()
				continue
			}
		}
		break
	}
	return l.token(kind, start)
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	for {
		b, ok := l.peek()
		if !ok {
			break
		}
		if isAlnum(b) || b == '.' {
			l.advance()
			continue
		}
		break
	}
	return l.token(TokNumber, start)
}

func (l *Lexer) scanString() Token {
	start := l.pos
	l.advance() // opening quote
	for {
		b, ok := l.advance()
		if !ok {
			l.Log(slog.LevelDebug, "unterminated string", slog.Int("offset", start))
			break
		}
		if b == '\\' {
			l.advance()
			continue
		}
		if b == '"' {
			break
		}
	}
	return l.token(TokString, start)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isAlnum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

func isIdentStart(b byte) bool {
	return isAlpha(b) || b == '_' || b == '$'
}

func isIdentPart(b byte) bool {
	return isAlnum(b) || b == '_' || b == '$'
}
