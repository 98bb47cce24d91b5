package parser

import (
	"fmt"
	"unicode"

	"filescript/internal/errs"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokName
	tokTrue
	tokFalse
	tokAnd
	tokOr
	tokNot
	tokIn
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokComma
	tokDot
	tokColon
	tokAssign
	tokEq
	tokNeq
	tokLt
	tokLte
	tokGt
	tokGte
)

type token struct {
	kind   tokenKind
	value  string
	column int // rune offset within the expression text
}

var keywordKinds = map[string]tokenKind{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"in":    tokIn,
	"True":  tokTrue,
	"true":  tokTrue,
	"False": tokFalse,
	"false": tokFalse,
}

// exprLexer tokenizes a single (possibly line-joined) expression. Columns are
// reported relative to baseColumn so errors point into the original line.
type exprLexer struct {
	text       []rune
	baseColumn int
	line       int
	sourceLine string
	index      int
}

func newExprLexer(text string, baseColumn, line int, sourceLine string) *exprLexer {
	return &exprLexer{text: []rune(text), baseColumn: baseColumn, line: line, sourceLine: sourceLine}
}

func (l *exprLexer) fail(message string, column int) {
	panic(errs.NewSyntaxError(message, l.line, l.baseColumn+column, l.sourceLine))
}

func (l *exprLexer) tokenize() []token {
	var tokens []token
	for l.index < len(l.text) {
		ch := l.text[l.index]
		if unicode.IsSpace(ch) {
			l.index++
			continue
		}

		start := l.index
		if l.index+1 < len(l.text) {
			two := string(l.text[l.index : l.index+2])
			if kind, ok := twoCharKinds[two]; ok {
				tokens = append(tokens, token{kind, two, start})
				l.index += 2
				continue
			}
		}
		if kind, ok := oneCharKinds[ch]; ok {
			tokens = append(tokens, token{kind, string(ch), start})
			l.index++
			continue
		}
		if ch >= '0' && ch <= '9' {
			l.index++
			for l.index < len(l.text) && l.text[l.index] >= '0' && l.text[l.index] <= '9' {
				l.index++
			}
			tokens = append(tokens, token{tokNumber, string(l.text[start:l.index]), start})
			continue
		}
		if ch == '\'' || ch == '"' {
			tokens = append(tokens, l.readString())
			continue
		}
		if unicode.IsLetter(ch) || ch == '_' {
			l.index++
			for l.index < len(l.text) {
				c := l.text[l.index]
				if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' {
					l.index++
					continue
				}
				break
			}
			value := string(l.text[start:l.index])
			kind, ok := keywordKinds[value]
			if !ok {
				kind = tokName
			}
			tokens = append(tokens, token{kind, value, start})
			continue
		}
		l.fail(fmt.Sprintf("Unexpected character '%c'", ch), start)
	}
	tokens = append(tokens, token{tokEOF, "", len(l.text)})
	return tokens
}

var twoCharKinds = map[string]tokenKind{
	"==": tokEq,
	"!=": tokNeq,
	"<=": tokLte,
	">=": tokGte,
}

var oneCharKinds = map[rune]tokenKind{
	'+': tokPlus,
	'-': tokMinus,
	'*': tokStar,
	'/': tokSlash,
	'%': tokPercent,
	'(': tokLParen,
	')': tokRParen,
	'[': tokLBrack,
	']': tokRBrack,
	',': tokComma,
	'.': tokDot,
	':': tokColon,
	'=': tokAssign,
	'<': tokLt,
	'>': tokGt,
}

var stringEscapes = map[rune]rune{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
}

func (l *exprLexer) readString() token {
	quote := l.text[l.index]
	start := l.index
	l.index++
	var out []rune
	for l.index < len(l.text) {
		ch := l.text[l.index]
		if ch == quote {
			l.index++
			return token{tokString, string(out), start}
		}
		if ch == '\\' {
			if l.index+1 >= len(l.text) {
				l.fail("Unterminated escape in string literal", start)
			}
			escaped := l.text[l.index+1]
			if mapped, ok := stringEscapes[escaped]; ok {
				out = append(out, mapped)
			} else {
				out = append(out, escaped)
			}
			l.index += 2
			continue
		}
		out = append(out, ch)
		l.index++
	}
	l.fail("Unterminated string literal", start)
	return token{}
}
