// Package parser turns template source into an immutable [AST] under a given
// delimiter [syntax.Syntax].
//
// Template text is split into literal text, expression tags, comment tags,
// and block tags. Expression bodies, conditions, loop iterables, and
// assignments are parsed with the expr language parser. Rendering is out of
// scope; the AST records whitespace markers for a later code generator.
package parser

import (
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	exprparser "github.com/expr-lang/expr/parser"

	"github.com/ardnew/tmplc/syntax"
)

// Parse parses source using the delimiters of s. path is informational and
// appears in errors and in the returned AST.
func Parse(source, path string, s syntax.Syntax) (*AST, error) {
	p := &parser{
		src:   source,
		path:  path,
		syn:   s,
		lines: lineStarts(source),
	}

	nodes, _, err := p.body(nil)
	if err != nil {
		return nil, err
	}

	return &AST{Path: path, Syntax: s, Nodes: nodes, Deps: p.deps}, nil
}

// Compile-time check that Parse satisfies Func.
var _ Func = Parse

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenText
	tokenExpr
	tokenComment
	tokenTag
)

type token struct {
	kind tokenKind
	pos  int
	ws   Ws
	// body is the text content for tokenText and tokenComment, the trimmed
	// expression for tokenExpr, and the trimmed arguments for tokenTag.
	body string
	// name is the tag keyword of a tokenTag.
	name string
}

// parser holds the parser state.
type parser struct {
	src   string
	path  string
	syn   syntax.Syntax
	pos   int
	lines []int
	deps  []Dep
	loops int
}

func lineStarts(s string) []int {
	starts := []int{0}

	for i := range len(s) {
		if s[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return starts
}

func (p *parser) position(offset int) Pos {
	line := sort.Search(len(p.lines), func(i int) bool { return p.lines[i] > offset }) - 1

	return Pos{
		Offset: offset,
		Line:   line + 1,
		Column: utf8.RuneCountInString(p.src[p.lines[line]:offset]) + 1,
	}
}

func (p *parser) errorf(offset int, msg string, err error) *Error {
	pos := p.position(offset)

	end := len(p.src)
	if pos.Line < len(p.lines) {
		end = p.lines[pos.Line] - 1
	}

	return &Error{
		Path: p.path,
		Pos:  pos,
		Msg:  msg,
		Err:  err,
		line: strings.TrimRight(p.src[p.lines[pos.Line-1]:end], "\r"),
	}
}

// next scans the token starting at p.pos.
func (p *parser) next() (token, error) {
	if p.pos >= len(p.src) {
		return token{kind: tokenEOF, pos: p.pos}, nil
	}

	rest := p.src[p.pos:]
	at, opener := -1, ""

	for _, o := range p.syn.Openers() {
		if i := strings.Index(rest, o); i >= 0 && (at < 0 || i < at) {
			at, opener = i, o
		}
	}

	if at != 0 {
		if at < 0 {
			at = len(rest)
		}

		tok := token{kind: tokenText, pos: p.pos, body: rest[:at]}
		p.pos += at

		return tok, nil
	}

	start := p.pos
	inner := start + len(opener)

	switch opener {
	case p.syn.CommentStart:
		end := strings.Index(p.src[inner:], p.syn.CommentEnd)
		if end < 0 {
			return token{}, p.errorf(start, "unclosed comment", nil)
		}

		body, ws := markers(p.src[inner : inner+end])
		p.pos = inner + end + len(p.syn.CommentEnd)

		return token{kind: tokenComment, pos: start, ws: ws, body: body}, nil

	case p.syn.ExprStart:
		end := closing(p.src[inner:], p.syn.ExprEnd)
		if end < 0 {
			return token{}, p.errorf(start, "unclosed expression", nil)
		}

		body, ws := markers(p.src[inner : inner+end])
		p.pos = inner + end + len(p.syn.ExprEnd)

		body = strings.TrimSpace(body)
		if body == "" {
			return token{}, p.errorf(start, "empty expression", nil)
		}

		return token{kind: tokenExpr, pos: start, ws: ws, body: body}, nil

	default:
		end := closing(p.src[inner:], p.syn.BlockEnd)
		if end < 0 {
			return token{}, p.errorf(start, "unclosed block tag", nil)
		}

		body, ws := markers(p.src[inner : inner+end])
		p.pos = inner + end + len(p.syn.BlockEnd)

		body = strings.TrimSpace(body)
		name, args := body, ""

		if i := strings.IndexFunc(body, unicode.IsSpace); i >= 0 {
			name, args = body[:i], strings.TrimSpace(body[i:])
		}

		if name == "" {
			return token{}, p.errorf(start, "empty block tag", nil)
		}

		return token{kind: tokenTag, pos: start, ws: ws, name: name, body: args}, nil
	}
}

// closing returns the index in s of the first delim outside a quoted string,
// or -1.
func closing(s, delim string) int {
	var quote rune

	for i := 0; i < len(s); {
		r, n := utf8.DecodeRuneInString(s[i:])

		switch {
		case quote != 0 && r == '\\':
			i += n
			if i < len(s) {
				_, m := utf8.DecodeRuneInString(s[i:])
				i += m
			}

			continue
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
		case r == '"' || r == '\'' || r == '`':
			quote = r
		case strings.HasPrefix(s[i:], delim):
			return i
		}

		i += n
	}

	return -1
}

// markers strips whitespace-control characters adjacent to the delimiters.
func markers(body string) (string, Ws) {
	var ws Ws

	isMarker := func(b byte) bool {
		return b == byte(MarkPreserve) || b == byte(MarkSuppress) || b == byte(MarkMinimize)
	}

	if len(body) > 0 && isMarker(body[0]) {
		ws.Left = Marker(body[0])
		body = body[1:]
	}

	if len(body) > 0 && isMarker(body[len(body)-1]) {
		ws.Right = Marker(body[len(body)-1])
		body = body[:len(body)-1]
	}

	return body, ws
}

// body parses nodes until EOF or one of the tags in ends, which is returned.
func (p *parser) body(ends []string) ([]Node, token, error) {
	var nodes []Node

	for {
		tok, err := p.next()
		if err != nil {
			return nil, token{}, err
		}

		switch tok.kind {
		case tokenEOF:
			if len(ends) > 0 {
				return nil, token{}, p.errorf(tok.pos, "expected "+quoteAll(ends)+" before end of template", nil)
			}

			return nodes, tok, nil

		case tokenText:
			nodes = append(nodes, Text{Pos: p.position(tok.pos), Value: tok.body})

		case tokenComment:
			nodes = append(nodes, Comment{Pos: p.position(tok.pos), Ws: tok.ws, Value: tok.body})

		case tokenExpr:
			e, err := p.expression(tok.pos, tok.body)
			if err != nil {
				return nil, token{}, err
			}

			nodes = append(nodes, Expr{Pos: p.position(tok.pos), Ws: tok.ws, Expression: e})

		case tokenTag:
			if slices.Contains(ends, tok.name) {
				return nodes, tok, nil
			}

			n, err := p.tag(tok)
			if err != nil {
				return nil, token{}, err
			}

			nodes = append(nodes, n)
		}
	}
}

func quoteAll(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = strconv.Quote(n)
	}

	return strings.Join(q, " or ")
}

func (p *parser) expression(offset int, src string) (Expression, error) {
	tree, err := exprparser.Parse(src)
	if err != nil {
		return Expression{}, p.errorf(offset, "invalid expression "+strconv.Quote(src), err)
	}

	return Expression{Source: src, Tree: tree}, nil
}

func (p *parser) tag(tok token) (Node, error) {
	pos := p.position(tok.pos)

	switch tok.name {
	case "if":
		return p.ifTag(tok)

	case "for":
		return p.forTag(tok)

	case "block":
		name := tok.body
		if !isIdent(name) {
			return nil, p.errorf(tok.pos, "invalid block name "+strconv.Quote(name), nil)
		}

		body, end, err := p.body([]string{"endblock"})
		if err != nil {
			return nil, err
		}

		if end.body != "" && end.body != name {
			return nil, p.errorf(end.pos, "endblock name "+strconv.Quote(end.body)+
				" does not match block "+strconv.Quote(name), nil)
		}

		return Block{Pos: pos, Ws: tok.ws, Name: name, Body: body, EndWs: end.ws}, nil

	case "macro":
		name, params, err := p.signature(tok)
		if err != nil {
			return nil, err
		}

		body, end, err := p.body([]string{"endmacro"})
		if err != nil {
			return nil, err
		}

		return Macro{Pos: pos, Ws: tok.ws, Name: name, Params: params, Body: body, EndWs: end.ws}, nil

	case "filter":
		f, err := p.expression(tok.pos, tok.body)
		if err != nil {
			return nil, err
		}

		body, end, err := p.body([]string{"endfilter"})
		if err != nil {
			return nil, err
		}

		return Filter{Pos: pos, Ws: tok.ws, Filter: f, Body: body, EndWs: end.ws}, nil

	case "set", "let":
		name, value, ok := strings.Cut(tok.body, "=")
		name = strings.TrimSpace(name)

		if !ok || !isIdent(name) {
			return nil, p.errorf(tok.pos, "expected \"name = expression\" after "+tok.name, nil)
		}

		v, err := p.expression(tok.pos, strings.TrimSpace(value))
		if err != nil {
			return nil, err
		}

		return Set{Pos: pos, Ws: tok.ws, Name: name, Value: v}, nil

	case "include", "extends", "import":
		return p.dep(tok)

	case "break", "continue":
		if p.loops == 0 {
			return nil, p.errorf(tok.pos, tok.name+" outside of for loop", nil)
		}

		return Control{Pos: pos, Ws: tok.ws, Kind: tok.name}, nil

	case "elif", "else", "endif", "endfor", "endblock", "endmacro", "endfilter":
		return nil, p.errorf(tok.pos, "unexpected "+strconv.Quote(tok.name), nil)

	default:
		return nil, p.errorf(tok.pos, "unknown block tag "+strconv.Quote(tok.name), nil)
	}
}

func (p *parser) ifTag(tok token) (Node, error) {
	n := If{Pos: p.position(tok.pos)}
	arm := tok

	for {
		var cond *Expression

		if arm.name == "else" && arm.body != "" {
			return nil, p.errorf(arm.pos, "unexpected "+strconv.Quote(arm.body)+" after else", nil)
		}

		if arm.name != "else" {
			if arm.body == "" {
				return nil, p.errorf(arm.pos, "missing condition after "+strconv.Quote(arm.name), nil)
			}

			e, err := p.expression(arm.pos, arm.body)
			if err != nil {
				return nil, err
			}

			cond = &e
		}

		ends := []string{"elif", "else", "endif"}
		if cond == nil {
			ends = []string{"endif"}
		}

		body, end, err := p.body(ends)
		if err != nil {
			return nil, err
		}

		n.Arms = append(n.Arms, Cond{Pos: p.position(arm.pos), Ws: arm.ws, Cond: cond, Body: body})

		if end.name == "endif" {
			n.EndWs = end.ws

			return n, nil
		}

		arm = end
	}
}

func (p *parser) forTag(tok token) (Node, error) {
	vars, iter, ok := strings.Cut(tok.body, " in ")
	if !ok {
		return nil, p.errorf(tok.pos, "expected \"for <vars> in <expression>\"", nil)
	}

	n := For{Pos: p.position(tok.pos), Ws: tok.ws}

	for v := range strings.SplitSeq(vars, ",") {
		v = strings.TrimSpace(v)
		if !isIdent(v) {
			return nil, p.errorf(tok.pos, "invalid loop variable "+strconv.Quote(v), nil)
		}

		n.Vars = append(n.Vars, v)
	}

	e, err := p.expression(tok.pos, strings.TrimSpace(iter))
	if err != nil {
		return nil, err
	}

	n.Iter = e

	p.loops++
	body, end, err := p.body([]string{"else", "endfor"})
	p.loops--

	if err != nil {
		return nil, err
	}

	n.Body = body

	if end.name == "else" {
		n.ElseWs = end.ws

		if n.Else, end, err = p.body([]string{"endfor"}); err != nil {
			return nil, err
		}
	}

	n.EndWs = end.ws

	return n, nil
}

// signature parses "name(a, b)" or "name".
func (p *parser) signature(tok token) (string, []string, error) {
	name, rest, hasParams := strings.Cut(tok.body, "(")
	name = strings.TrimSpace(name)

	if !isIdent(name) {
		return "", nil, p.errorf(tok.pos, "invalid macro name "+strconv.Quote(name), nil)
	}

	if !hasParams {
		return name, nil, nil
	}

	list, ok := strings.CutSuffix(strings.TrimSpace(rest), ")")
	if !ok {
		return "", nil, p.errorf(tok.pos, "unclosed macro parameter list", nil)
	}

	var params []string

	for param := range strings.SplitSeq(list, ",") {
		param = strings.TrimSpace(param)
		if param == "" {
			continue
		}

		if !isIdent(param) {
			return "", nil, p.errorf(tok.pos, "invalid macro parameter "+strconv.Quote(param), nil)
		}

		params = append(params, param)
	}

	return name, params, nil
}

// dep parses `include "path"`, `extends "path"`, or `import "path" as name`.
func (p *parser) dep(tok token) (Node, error) {
	target, rest, err := p.quoted(tok)
	if err != nil {
		return nil, err
	}

	d := Dep{Pos: p.position(tok.pos), Ws: tok.ws, Kind: tok.name, Target: target}

	switch {
	case tok.name == "import":
		alias, ok := strings.CutPrefix(rest, "as ")
		alias = strings.TrimSpace(alias)

		if !ok || !isIdent(alias) {
			return nil, p.errorf(tok.pos, "expected \"as <name>\" after import path", nil)
		}

		d.Alias = alias

	case rest != "":
		return nil, p.errorf(tok.pos, "unexpected "+strconv.Quote(rest)+" after "+tok.name+" path", nil)
	}

	p.deps = append(p.deps, d)

	return d, nil
}

// quoted reads a leading string literal from tok.body.
func (p *parser) quoted(tok token) (string, string, error) {
	s := tok.body
	if s == "" || (s[0] != '"' && s[0] != '\'' && s[0] != '`') {
		return "", "", p.errorf(tok.pos, "expected quoted path after "+tok.name, nil)
	}

	prefix, err := strconv.QuotedPrefix(s)
	if err != nil && s[0] == '\'' {
		// single-quoted strings are not Go literals
		end := strings.IndexByte(s[1:], '\'')
		if end >= 0 {
			return s[1 : end+1], strings.TrimSpace(s[end+2:]), nil
		}
	}

	if err != nil {
		return "", "", p.errorf(tok.pos, "invalid quoted path after "+tok.name, err)
	}

	value, err := strconv.Unquote(prefix)
	if err != nil {
		return "", "", p.errorf(tok.pos, "invalid quoted path after "+tok.name, err)
	}

	return value, strings.TrimSpace(s[len(prefix):]), nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}

	return true
}
