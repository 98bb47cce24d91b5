// Package parser turns script source into an AST. Parsing is total: it never
// touches the filesystem and performs no side effects. The grammar is
// line-structured with significant indentation (spaces only), Python-like
// blocks for `for`/`if`/`elif`/`else`, and a small expression language.
package parser

import (
	"regexp"
	"strings"

	"filescript/internal/errs"
)

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	forRe        = regexp.MustCompile(`^for\s+([A-Za-z_][A-Za-z0-9_]*)\s+in\s+(.+):\s*$`)
	ifRe         = regexp.MustCompile(`^if\s+(.+):\s*$`)
	elifRe       = regexp.MustCompile(`^elif\s+(.+):\s*$`)
)

// Parse parses source into a Program. The returned error, if any, is a
// *errs.SyntaxError with 1-based position and the offending line.
func Parse(source string) (prog *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if syntaxErr, ok := r.(*errs.SyntaxError); ok {
				prog, err = nil, syntaxErr
				return
			}
			panic(r)
		}
	}()
	p := &sourceParser{lines: splitLines(source)}
	return &Program{Statements: p.parseBlock(0)}, nil
}

func splitLines(source string) []string {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.Split(normalized, "\n")
}

type sourceParser struct {
	lines []string
	index int
}

func (p *sourceParser) fail(message string, line, column int) {
	sourceLine := ""
	if line >= 1 && line <= len(p.lines) {
		sourceLine = p.lines[line-1]
	}
	panic(errs.NewSyntaxError(message, line, column, sourceLine))
}

// stripComment removes a trailing `#` comment, honoring quotes and escapes.
func stripComment(raw string) string {
	var inQuote rune
	escaped := false
	for idx, ch := range raw {
		if inQuote != 0 {
			if escaped {
				escaped = false
				continue
			}
			if ch == '\\' {
				escaped = true
				continue
			}
			if ch == inQuote {
				inQuote = 0
			}
			continue
		}
		if ch == '\'' || ch == '"' {
			inQuote = ch
			continue
		}
		if ch == '#' {
			return raw[:idx]
		}
	}
	return raw
}

func isBlankOrComment(raw string) bool {
	return strings.TrimSpace(stripComment(raw)) == ""
}

func (p *sourceParser) leadingIndent(raw string, lineNo int) int {
	indent := 0
	for _, ch := range raw {
		if ch == ' ' {
			indent++
			continue
		}
		if ch == '\t' {
			p.fail("Tabs are not supported for indentation", lineNo, indent+1)
		}
		break
	}
	return indent
}

func (p *sourceParser) parseBlock(expectedIndent int) []Stmt {
	var statements []Stmt
	for p.index < len(p.lines) {
		raw := p.lines[p.index]
		lineNo := p.index + 1
		if isBlankOrComment(raw) {
			p.index++
			continue
		}

		indent := p.leadingIndent(raw, lineNo)
		if indent < expectedIndent {
			break
		}
		if indent > expectedIndent {
			p.fail("Unexpected indentation", lineNo, indent+1)
		}

		stripped := strings.TrimRight(stripComment(raw), " \t")[indent:]
		statements = append(statements, p.parseStatement(stripped, lineNo, indent))
	}
	return statements
}

func (p *sourceParser) parseStatement(text string, lineNo, indent int) Stmt {
	if strings.HasPrefix(text, "for ") {
		return p.parseFor(text, lineNo, indent)
	}
	if strings.HasPrefix(text, "if ") {
		return p.parseIf(text, lineNo, indent)
	}
	if strings.HasPrefix(text, "elif ") {
		p.fail("'elif' without matching 'if'", lineNo, indent+1)
	}
	if text == "else:" {
		p.fail("'else' without matching 'if'", lineNo, indent+1)
	}

	if assignIdx := findAssignment(text); assignIdx != -1 {
		lhs := strings.TrimSpace(text[:assignIdx])
		rhs := strings.TrimSpace(text[assignIdx+1:])
		if !identifierRe.MatchString(lhs) {
			p.fail("Invalid assignment target. Only simple variable names are allowed", lineNo, indent+1)
		}
		if rhs == "" {
			p.fail("Missing expression on right side of assignment", lineNo, indent+assignIdx+2)
		}
		exprCol := indent + strings.Index(text, rhs) + 1
		full, consumed := p.collectContinued(rhs, lineNo)
		expr := p.parseExpression(full, lineNo, exprCol)
		p.index += consumed
		return &Assign{Name: lhs, Value: expr, Location: errs.Location{Line: lineNo, Column: indent + 1}}
	}

	full, consumed := p.collectContinued(text, lineNo)
	expr := p.parseExpression(full, lineNo, indent+1)
	p.index += consumed
	return &ExprStmt{Value: expr, Location: errs.Location{Line: lineNo, Column: indent + 1}}
}

// collectContinued joins follow-up lines while brackets or parentheses remain
// open, so list literals and calls may span lines.
func (p *sourceParser) collectContinued(text string, lineNo int) (string, int) {
	expression := text
	balance := delimiterBalance(text)
	consumed := 1
	for balance > 0 {
		next := p.index + consumed
		if next >= len(p.lines) {
			p.fail("Unterminated expression. Missing closing bracket/parenthesis", lineNo, 1)
		}
		nextLine := strings.TrimSpace(stripComment(p.lines[next]))
		expression += "\n" + nextLine
		balance += delimiterBalance(nextLine)
		consumed++
	}
	return expression, consumed
}

func delimiterBalance(text string) int {
	balance := 0
	var inQuote rune
	escaped := false
	for _, ch := range text {
		if inQuote != 0 {
			if escaped {
				escaped = false
				continue
			}
			switch ch {
			case '\\':
				escaped = true
			case inQuote:
				inQuote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			inQuote = ch
		case '(', '[':
			balance++
		case ')', ']':
			balance--
		}
	}
	return balance
}

func (p *sourceParser) parseFor(text string, lineNo, indent int) Stmt {
	match := forRe.FindStringSubmatch(text)
	if match == nil {
		p.fail("Invalid for-loop syntax. Use: for item in iterable:", lineNo, indent+1)
	}
	varName := match[1]
	iterableText := strings.TrimSpace(match[2])
	iterableCol := indent + strings.Index(text, iterableText) + 1
	iterable := p.parseExpression(iterableText, lineNo, iterableCol)
	p.index++
	body := p.parseChildBlock(indent, lineNo, indent+1)
	return &ForStmt{Var: varName, Iterable: iterable, Body: body, Location: errs.Location{Line: lineNo, Column: indent + 1}}
}

func (p *sourceParser) parseIf(text string, lineNo, indent int) Stmt {
	match := ifRe.FindStringSubmatch(text)
	if match == nil {
		p.fail("Invalid if syntax. Use: if condition:", lineNo, indent+1)
	}
	condText := strings.TrimSpace(match[1])
	condCol := indent + strings.Index(text, condText) + 1
	cond := p.parseExpression(condText, lineNo, condCol)
	p.index++
	body := p.parseChildBlock(indent, lineNo, indent+1)
	branches := []Branch{{Cond: cond, Body: body}}
	var elseBody []Stmt
	hasElse := false

	for p.index < len(p.lines) {
		scan := p.index
		for scan < len(p.lines) && isBlankOrComment(p.lines[scan]) {
			scan++
		}
		if scan >= len(p.lines) {
			p.index = scan
			break
		}

		raw := p.lines[scan]
		scanLineNo := scan + 1
		scanIndent := p.leadingIndent(raw, scanLineNo)
		if scanIndent != indent {
			p.index = scan
			break
		}

		stripped := strings.TrimRight(stripComment(raw), " \t")[scanIndent:]
		if strings.HasPrefix(stripped, "elif ") {
			if hasElse {
				p.fail("'elif' cannot appear after 'else'", scanLineNo, scanIndent+1)
			}
			elifMatch := elifRe.FindStringSubmatch(stripped)
			if elifMatch == nil {
				p.fail("Invalid elif syntax. Use: elif condition:", scanLineNo, scanIndent+1)
			}
			elifCondText := strings.TrimSpace(elifMatch[1])
			elifCondCol := scanIndent + strings.Index(stripped, elifCondText) + 1
			elifCond := p.parseExpression(elifCondText, scanLineNo, elifCondCol)
			p.index = scan + 1
			elifBody := p.parseChildBlock(scanIndent, scanLineNo, scanIndent+1)
			branches = append(branches, Branch{Cond: elifCond, Body: elifBody})
			continue
		}
		if stripped == "else:" {
			if hasElse {
				p.fail("Only one else block is allowed", scanLineNo, scanIndent+1)
			}
			hasElse = true
			p.index = scan + 1
			elseBody = p.parseChildBlock(scanIndent, scanLineNo, scanIndent+1)
			continue
		}
		p.index = scan
		break
	}

	stmt := &IfStmt{Branches: branches, Location: errs.Location{Line: lineNo, Column: indent + 1}}
	if hasElse {
		stmt.Else = elseBody
	}
	return stmt
}

func (p *sourceParser) parseChildBlock(parentIndent, parentLine, parentCol int) []Stmt {
	scan := p.index
	for scan < len(p.lines) && isBlankOrComment(p.lines[scan]) {
		scan++
	}
	if scan >= len(p.lines) {
		p.fail("Expected an indented block", parentLine, parentCol)
	}
	childLineNo := scan + 1
	childIndent := p.leadingIndent(p.lines[scan], childLineNo)
	if childIndent <= parentIndent {
		p.fail("Expected an indented block", childLineNo, childIndent+1)
	}
	p.index = scan
	return p.parseBlock(childIndent)
}

// findAssignment locates a top-level `=` that is not part of a comparison,
// skipping quoted text and bracketed regions.
func findAssignment(text string) int {
	depth := 0
	var inQuote rune
	escaped := false
	for idx, ch := range text {
		if inQuote != 0 {
			if escaped {
				escaped = false
				continue
			}
			switch ch {
			case '\\':
				escaped = true
			case inQuote:
				inQuote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			inQuote = ch
			continue
		case '(', '[':
			depth++
			continue
		case ')', ']':
			if depth > 0 {
				depth--
			}
			continue
		}
		if ch != '=' || depth != 0 {
			continue
		}
		var prev, next byte
		if idx > 0 {
			prev = text[idx-1]
		}
		if idx+1 < len(text) {
			next = text[idx+1]
		}
		if prev == '=' || prev == '!' || prev == '<' || prev == '>' || next == '=' {
			continue
		}
		return idx
	}
	return -1
}

func (p *sourceParser) parseExpression(text string, lineNo, column int) Expr {
	sourceLine := ""
	if lineNo >= 1 && lineNo <= len(p.lines) {
		sourceLine = p.lines[lineNo-1]
	}
	lexer := newExprLexer(text, column, lineNo, sourceLine)
	ep := &exprParser{tokens: lexer.tokenize(), line: lineNo, sourceLine: sourceLine, baseColumn: column}
	return ep.parse()
}
