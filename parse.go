package curves

import (
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Expr = num | 'i' | 't' | Const | Call | Neg | Plus | Add | Sub | Mul | Div | Pow | '(' Expr ')'
// Const = constname
// Call = funcname '(' [ Expr { ',' Expr } ] ')'
// Neg = '-' Expr
// Plus = '+' Expr
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr | Expr '×' Expr
// Div = Expr '/' Expr | Expr '÷' Expr
// Pow = Expr '^' Expr
//
// Precedence from loosest to tightest is additive, multiplicative, unary,
// exponentiation. Exponentiation and unary operators are right-associative;
// the others are left-associative. The right operand of ^ may carry unary
// signs, so 2^-t is 2^(-t).

// Expr is a parsed expression of the parameter t.
type Expr struct {
	// n is the root node of the expression.
	n *node
	// param is whether t appears in the expression.
	param bool
}

// Param reports whether the expression refers to the parameter t.
func (e *Expr) Param() bool {
	return e.param
}

// String creates a fully parenthesized representation of the parsed
// expression. Parsing the result with the same options gives the same tree.
func (e *Expr) String() string {
	var b strings.Builder
	e.n.fmt(&b, true)
	return b.String()
}

// Parse parses an expression from src. The given options are applied in
// order. Parse reads src to EOF.
func Parse(src io.RuneScanner, opts ...ParseOption) (*Expr, error) {
	scan := lex(src)
	var toks []Token
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokenEnd {
			break
		}
	}
	return ParseTokens(toks, opts...)
}

// ParseString is a shortcut to parse an expression from a string.
func ParseString(src string, opts ...ParseOption) (*Expr, error) {
	return Parse(strings.NewReader(src), opts...)
}

// ParseTokens parses a token sequence as produced by Tokenize. If toks does
// not end with a TokenEnd, the parser behaves as if it did.
func ParseTokens(toks []Token, opts ...ParseOption) (*Expr, error) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != TokenEnd {
		end := Token{Kind: TokenEnd, Pos: 1}
		if len(toks) > 0 {
			last := toks[len(toks)-1]
			end.Pos = last.Pos + len([]rune(last.Text))
		}
		toks = append(toks[:len(toks):len(toks)], end)
	}
	p := parsectx{}
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	if p.funcs == nil {
		p.funcs = globalfuncs
	} else if !p.nodefaults {
		// Only set default functions that aren't already set.
		for k, v := range globalfuncs {
			if _, ok := p.funcs[k]; !ok {
				p.funcs[k] = v
			}
		}
	}
	scan := &tokens{toks: toks}
	n, err := parseterm(scan, &p, exprprec)
	if err != nil {
		return nil, err
	}
	if tok := scan.next(); tok.Kind != TokenEnd {
		return nil, &UnexpectedTokenError{Col: tok.Pos, Token: tok.Text}
	}
	return &Expr{n: n, param: p.param}, nil
}

// tokens is a cursor over a token sequence ending in TokenEnd.
type tokens struct {
	toks []Token
	k    int
}

// next returns the next token. Once the end is reached, next keeps returning
// the End token.
func (s *tokens) next() Token {
	tok := s.toks[min(s.k, len(s.toks)-1)]
	s.k++
	return tok
}

// push unreads the last token returned by next.
func (s *tokens) push() {
	s.k--
}

// parseterm parses a subexpression whose operators all bind more tightly than
// until. If there is no error, then parseterm pushes the last token it scans,
// which is always a close parenthesis, separator, or End.
func parseterm(scan *tokens, p *parsectx, until operator) (*node, error) {
	n, err := parselhs(scan, p, until)
	if err != nil {
		return nil, err
	}
	for {
		tok := scan.next()
		switch tok.Kind {
		case TokenOp:
			prec := binop(tok.Text)
			if prec.op == nodeNone {
				return nil, &UnexpectedTokenError{Col: tok.Pos, Token: tok.Text}
			}
			if !prec.moreBinding(until) {
				scan.push()
				return n, nil
			}
			rhs, err := parseterm(scan, p, prec)
			if err != nil {
				return nil, err
			}
			n = &node{kind: prec.op, left: n, right: rhs}
		case TokenClose, TokenSep, TokenEnd:
			// End of subexpression. The caller decides whether it is valid.
			scan.push()
			return n, nil
		default:
			// There is no implicit multiplication, so a number, name, or open
			// bracket following a complete operand is an error.
			return nil, &UnexpectedTokenError{Col: tok.Pos, Token: tok.Text}
		}
	}
}

// parselhs parses the first operand of a subexpression. Operators here are
// unary.
func parselhs(scan *tokens, p *parsectx, until operator) (*node, error) {
	tok := scan.next()
	switch tok.Kind {
	case TokenNum:
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			// Only reachable with hand-made tokens.
			return nil, &UnexpectedTokenError{Col: tok.Pos, Token: tok.Text}
		}
		// Out of range literals are infinities.
		return &node{kind: nodeNum, name: tok.Text, val: Real(v)}, nil
	case TokenIdent:
		switch tok.Text {
		case "i":
			return &node{kind: nodeImag}, nil
		case "t":
			p.param = true
			return &node{kind: nodeParam}, nil
		}
		fn := p.funcs[tok.Text]
		if fn == nil {
			return nil, &UnknownIdentifierError{Col: tok.Pos, Name: tok.Text, Suggest: suggest(tok.Text, p.funcs)}
		}
		return parsecall(scan, p, tok, fn)
	case TokenOp:
		prec := unop(tok.Text)
		if prec.op == nodeNone {
			return nil, &UnexpectedTokenError{Col: tok.Pos, Token: tok.Text}
		}
		if !prec.moreBinding(until) {
			// x^-y -> x^(-y)
			// Just use the enclosing operator's precedence to simplify.
			prec.prec, prec.right = until.prec, until.right
		}
		rhs, err := parseterm(scan, p, prec)
		if err != nil {
			return nil, err
		}
		return &node{kind: prec.op, left: rhs}, nil
	case TokenOpen:
		rhs, err := parseterm(scan, p, exprprec)
		if err != nil {
			return nil, closing(err, tok)
		}
		end := scan.next()
		switch end.Kind {
		case TokenClose:
			return rhs, nil
		case TokenEnd:
			return nil, &UnexpectedEndError{Col: end.Pos, Open: tok.Pos}
		default:
			return nil, &UnexpectedTokenError{Col: end.Pos, Token: end.Text}
		}
	case TokenEnd:
		return nil, &UnexpectedEndError{Col: tok.Pos}
	default:
		return nil, &UnexpectedTokenError{Col: tok.Pos, Token: tok.Text}
	}
}

// parsecall parses the argument list following the name of a known function.
// Functions of no arguments, i.e. constants, may appear without brackets;
// all others require them.
func parsecall(scan *tokens, p *parsectx, name Token, fn Func) (*node, error) {
	want := fn.Arity()
	open := scan.next()
	if open.Kind != TokenOpen {
		scan.push()
		if want != 0 {
			return nil, &ArityError{Col: name.Pos, Name: name.Text, Want: want, Got: 0}
		}
		return &node{kind: nodeCall, name: name.Text, fn: fn}, nil
	}
	var args []*node
	if tok := scan.next(); tok.Kind != TokenClose {
		scan.push()
	loop:
		for {
			arg, err := parseterm(scan, p, exprprec)
			if err != nil {
				return nil, closing(err, open)
			}
			args = append(args, arg)
			end := scan.next()
			switch end.Kind {
			case TokenSep:
				// Next argument.
			case TokenClose:
				break loop
			case TokenEnd:
				return nil, &UnexpectedEndError{Col: end.Pos, Open: open.Pos}
			default:
				panic("curves: parseterm ended on non-end token " + end.String())
			}
		}
	}
	if len(args) != want {
		return nil, &ArityError{Col: name.Pos, Name: name.Text, Want: want, Got: len(args)}
	}
	return &node{kind: nodeCall, name: name.Text, fn: fn, args: args}, nil
}

// closing annotates an unexpected end inside brackets with the position of
// the innermost open bracket.
func closing(err error, open Token) error {
	if ee, _ := err.(*UnexpectedEndError); ee != nil && ee.Open == 0 {
		ee.Open = open.Pos
	}
	return err
}

// suggest finds the known name closest to an unknown identifier.
func suggest(name string, funcs map[string]Func) string {
	names := make([]string, 0, len(funcs))
	for k, v := range funcs {
		if v != nil {
			names = append(names, k)
		}
	}
	sortstrs(names)
	// First look for names that the identifier abbreviates, e.g. sq -> sqrt.
	ranks := fuzzy.RankFindFold(name, names)
	if len(ranks) > 0 {
		sort.Stable(ranks)
		return ranks[0].Target
	}
	// Then look for names that the identifier extends, e.g. sine -> sin.
	best, dist := "", -1
	for _, k := range names {
		if !fuzzy.MatchFold(k, name) {
			continue
		}
		if d := fuzzy.LevenshteinDistance(k, name); dist < 0 || d < dist {
			best, dist = k, d
		}
	}
	return best
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, nodeAdd}
	case "-":
		return operator{1, false, nodeSub}
	case "*", "×":
		return operator{5, false, nodeMul}
	case "/", "÷":
		return operator{5, false, nodeDiv}
	case "^":
		return operator{15, true, nodePow}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of nodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{10, true, nodeNop}
	case "-":
		return operator{10, true, nodeNeg}
	default:
		return operator{}
	}
}

// exprprec is the precedence required to parse an entire subexpression.
var exprprec = operator{-128, true, nodeNone}
