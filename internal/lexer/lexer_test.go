package lexer

import (
	"sort"
	"testing"

	"github.com/gpiler/ptxlink/internal/testutil"
)

func tokenKinds(source string) []TokenKind {
	tokens := New(source, nil).Tokenize()
	kinds := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		kinds[i] = t.Kind
	}
	return kinds
}

func tokenTexts(source string) []string {
	tokens := New(source, nil).Tokenize()
	var texts []string
	for _, t := range tokens {
		if t.Kind != TokEOF {
			texts = append(texts, t.Text(source))
		}
	}
	return texts
}

func TestEmptyInput(t *testing.T) {
	kinds := tokenKinds("")
	testutil.SliceEqual(t, []TokenKind{TokEOF}, kinds, "empty input")
}

func TestWhitespaceOnly(t *testing.T) {
	kinds := tokenKinds(" \t \r")
	testutil.SliceEqual(t, []TokenKind{TokEOF}, kinds, "whitespace input")
}

func TestPunctuation(t *testing.T) {
	kinds := tokenKinds(", ; : ( ) [ ] { } < > @ ! + - = |")
	expected := []TokenKind{
		TokComma, TokSemicolon, TokColon, TokLParen, TokRParen,
		TokLBracket, TokRBracket, TokLBrace, TokRBrace, TokLAngle,
		TokRAngle, TokAt, TokBang, TokPlus, TokMinus, TokOperator,
		TokOperator, TokEOF,
	}
	testutil.SliceEqual(t, expected, kinds, "token kinds")
}

func TestDirectives(t *testing.T) {
	texts := tokenTexts(".visible .entry wrapper(")
	testutil.SliceEqual(t, []string{".visible", ".entry", "wrapper", "("}, texts, "token texts")

	kinds := tokenKinds(".version 7.0")
	testutil.SliceEqual(t, []TokenKind{TokDirective, TokNumber, TokEOF}, kinds, "token kinds")
}

func TestDottedOpcode(t *testing.T) {
	texts := tokenTexts("\tld.param.u32 %r1, [f];")
	testutil.SliceEqual(t, []string{"ld.param.u32", "%r1", ",", "[", "f", "]", ";"}, texts, "token texts")
}

func TestRegisters(t *testing.T) {
	kinds := tokenKinds("mov.u32 %r1, %tid.x;")
	expected := []TokenKind{TokIdent, TokRegister, TokComma, TokRegister, TokSemicolon, TokEOF}
	testutil.SliceEqual(t, expected, kinds, "token kinds")
	testutil.SliceEqual(t, []string{"mov.u32", "%r1", ",", "%tid.x", ";"}, tokenTexts("mov.u32 %r1, %tid.x;"), "token texts")
}

func TestMangledSymbol(t *testing.T) {
	texts := tokenTexts("\tcall.uni (retval0), _Z8mapitfooiPiS_, (param0);")
	expected := []string{"call.uni", "(", "retval0", ")", ",", "_Z8mapitfooiPiS_", ",", "(", "param0", ")", ";"}
	testutil.SliceEqual(t, expected, texts, "token texts")
}

func TestLabelsAndPredicates(t *testing.T) {
	texts := tokenTexts("$L__BB0_2: @%p1 bra $L__BB0_3;")
	expected := []string{"$L__BB0_2", ":", "@", "%p1", "bra", "$L__BB0_3", ";"}
	testutil.SliceEqual(t, expected, texts, "token texts")
}

func TestNumbers(t *testing.T) {
	texts := tokenTexts("0 42 0x1F 0f3F800000 1.5")
	testutil.SliceEqual(t, []string{"0", "42", "0x1F", "0f3F800000", "1.5"}, texts, "token texts")
}

func TestLineComment(t *testing.T) {
	src := "ret; // _Z8mapitfooiPiS_, here"
	kinds := tokenKinds(src)
	testutil.SliceEqual(t, []TokenKind{TokIdent, TokSemicolon, TokComment, TokEOF}, kinds, "token kinds")
	texts := tokenTexts(src)
	testutil.Equal(t, "// _Z8mapitfooiPiS_, here", texts[2], "comment text")
}

func TestBlockCommentSingleLine(t *testing.T) {
	kinds := tokenKinds("/* { */ ret;")
	testutil.SliceEqual(t, []TokenKind{TokComment, TokIdent, TokSemicolon, TokEOF}, kinds, "token kinds")
}

func TestBlockCommentAcrossLines(t *testing.T) {
	first := New("mov.u32 %r1, 0; /* open {", nil)
	kinds := make([]TokenKind, 0)
	for _, tok := range first.Tokenize() {
		kinds = append(kinds, tok.Kind)
	}
	testutil.SliceEqual(t, []TokenKind{TokIdent, TokRegister, TokComma, TokNumber, TokSemicolon, TokComment, TokEOF}, kinds, "first line")
	testutil.True(t, first.InBlockComment(), "first line should end inside comment")

	middle := Continue("still { in comment", true, nil)
	toks := middle.Tokenize()
	testutil.Len(t, toks, 2, "middle line tokens")
	testutil.Equal(t, TokComment, toks[0].Kind, "middle line kind")
	testutil.True(t, middle.InBlockComment(), "middle line should stay inside comment")

	last := Continue("} */ ret;", true, nil)
	toks = last.Tokenize()
	testutil.Equal(t, TokComment, toks[0].Kind, "closing comment")
	testutil.Equal(t, TokIdent, toks[1].Kind, "opcode after comment")
	testutil.False(t, last.InBlockComment(), "last line should close comment")
}

func TestEmptyLineInsideBlockComment(t *testing.T) {
	l := Continue("", true, nil)
	testutil.SliceEqual(t, []TokenKind{TokEOF}, func() []TokenKind {
		var kinds []TokenKind
		for _, tok := range l.Tokenize() {
			kinds = append(kinds, tok.Kind)
		}
		return kinds
	}(), "empty line in comment")
	testutil.True(t, l.InBlockComment(), "comment still open")
}

func TestStrings(t *testing.T) {
	texts := tokenTexts(`.file 1 "kernel.cu"`)
	testutil.SliceEqual(t, []string{".file", "1", `"kernel.cu"`}, texts, "token texts")

	texts = tokenTexts(`"esc\"aped" x`)
	testutil.SliceEqual(t, []string{`"esc\"aped"`, "x"}, texts, "escaped quote")

	texts = tokenTexts(`"open`)
	testutil.SliceEqual(t, []string{`"open`}, texts, "unterminated string")
}

func TestUnexpectedByte(t *testing.T) {
	kinds := tokenKinds("ret #")
	testutil.SliceEqual(t, []TokenKind{TokIdent, TokError, TokEOF}, kinds, "token kinds")
}

func TestSpansCoverText(t *testing.T) {
	src := "\tst.global.f32 [%rd4], %f1;"
	for _, tok := range New(src, nil).Tokenize() {
		if tok.Kind == TokEOF {
			testutil.Equal(t, tok.Span.Start, tok.Span.End, "EOF span should be empty")
			continue
		}
		testutil.Greater(t, tok.Span.End, tok.Span.Start, "token %s should be non-empty", tok.Kind)
	}
}

func TestDirectiveTableSorted(t *testing.T) {
	testutil.True(t, sort.SliceIsSorted(directives, func(i, j int) bool {
		return directives[i].text < directives[j].text
	}), "directive table must be sorted")
}

func TestLookupDirective(t *testing.T) {
	tests := []struct {
		text  string
		class DirectiveClass
		ok    bool
	}{
		{".visible", DirectiveLinkage, true},
		{".func", DirectiveLinkage, true},
		{".version", DirectiveModule, true},
		{".reg", DirectiveState, true},
		{".maxntid", DirectivePerf, true},
		{".loc", DirectiveDebug, true},
		{".u32", DirectiveUnknown, false},
		{"visible", DirectiveUnknown, false},
	}
	for _, tt := range tests {
		class, ok := LookupDirective(tt.text)
		testutil.Equal(t, tt.ok, ok, "LookupDirective(%q) ok", tt.text)
		testutil.Equal(t, tt.class, class, "LookupDirective(%q) class", tt.text)
	}
}

func TestIsIdent(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"_Z8mapitfooiPiS_", true},
		{"mapit", true},
		{"$L__BB0_2", true},
		{"mapit(int*)", false},
		{" mapit", false},
		{"mapit,", false},
		{"%r1", false},
		{".func", false},
		{"", false},
	}
	for _, tt := range tests {
		testutil.Equal(t, tt.want, IsIdent(tt.s), "IsIdent(%q)", tt.s)
	}
}
