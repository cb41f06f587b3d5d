package curves

import (
	"errors"
	"strconv"
	"strings"
)

// Evaluator maps a parameter value to a complex result. Implementations must
// be safe for concurrent use.
type Evaluator interface {
	Eval(t float64) (Complex, error)
}

// Plan is a compiled expression ready for repeated evaluation. A Plan has no
// mutable state, so one Plan may be evaluated concurrently by any number of
// goroutines.
type Plan struct {
	code []instr
	// depth is the maximum stack depth the code reaches.
	depth int
	// src is the text of the compiled expression.
	src string
}

var _ Evaluator = (*Plan)(nil)

type opcode uint8

const (
	opConst opcode = iota // push val
	opParam               // push t
	opNeg                 // negate top
	opBinary              // pop r, pop l, push l op r
	opCall                // pop n args, push fn(args)
)

type instr struct {
	op   opcode
	kind nodeKind
	val  Complex
	fn   Func
	name string
	n    int
}

// Compile converts a parsed expression into a Plan. Subexpressions that do
// not depend on t and evaluate without error are computed once here.
// Validation already happened during parsing, so Compile cannot fail.
func Compile(e *Expr) *Plan {
	c := compiler{}
	c.emit(e.n)
	p := &Plan{code: c.code, depth: c.max, src: e.String()}
	lg := logger()
	lg.Debug().
		Str("expr", p.src).
		Int("instrs", len(p.code)).
		Int("folded", c.folded).
		Int("depth", p.depth).
		Msg("compiled plan")
	return p
}

// CompileString is a shortcut to parse and compile an expression.
func CompileString(src string, opts ...ParseOption) (*Plan, error) {
	e, err := ParseString(src, opts...)
	if err != nil {
		return nil, err
	}
	return Compile(e), nil
}

type compiler struct {
	code   []instr
	cur    int
	max    int
	folded int
}

func (c *compiler) push(in instr, delta int) {
	c.code = append(c.code, in)
	c.cur += delta
	if c.cur > c.max {
		c.max = c.cur
	}
}

func (c *compiler) emit(n *node) {
	switch n.kind {
	case nodeNum, nodeImag, nodeParam:
		// Leaves are already as cheap as possible.
	default:
		if !n.param() {
			if v, err := n.eval(0); err == nil {
				c.folded++
				c.push(instr{op: opConst, val: v}, 1)
				return
			}
		}
	}
	switch n.kind {
	case nodeNum:
		c.push(instr{op: opConst, val: n.val}, 1)
	case nodeImag:
		c.push(instr{op: opConst, val: unit}, 1)
	case nodeParam:
		c.push(instr{op: opParam}, 1)
	case nodeCall:
		for _, a := range n.args {
			c.emit(a)
		}
		c.push(instr{op: opCall, fn: n.fn, name: n.name, n: len(n.args)}, 1-len(n.args))
	case nodeNeg:
		c.emit(n.left)
		c.push(instr{op: opNeg}, 0)
	case nodeNop:
		c.emit(n.left)
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodePow:
		c.emit(n.left)
		c.emit(n.right)
		c.push(instr{op: opBinary, kind: n.kind}, -1)
	default:
		panic("curves: invalid AST node " + n.kind.String())
	}
}

// Eval evaluates the plan at t.
func (p *Plan) Eval(t float64) (Complex, error) {
	var buf [16]Complex
	stack := buf[:0]
	if p.depth > len(buf) {
		stack = make([]Complex, 0, p.depth)
	}
	for i := range p.code {
		in := &p.code[i]
		switch in.op {
		case opConst:
			stack = append(stack, in.val)
		case opParam:
			stack = append(stack, Real(t))
		case opNeg:
			k := len(stack) - 1
			stack[k] = stack[k].Neg()
		case opBinary:
			k := len(stack) - 2
			v, err := arith(in.kind, stack[k], stack[k+1])
			if err != nil {
				return Complex{}, err
			}
			stack[k] = v
			stack = stack[:k+1]
		case opCall:
			k := len(stack) - in.n
			v, err := call(in.fn, in.name, stack[k:])
			if err != nil {
				return Complex{}, err
			}
			stack = append(stack[:k], v)
		default:
			panic("curves: invalid opcode " + strconv.Itoa(int(in.op)))
		}
	}
	if len(stack) != 1 {
		panic("curves: inconsistent stack: " + strconv.Itoa(len(stack)) + " items (bad plan?)")
	}
	return stack[0], nil
}

// String returns the fully parenthesized expression the plan was compiled
// from.
func (p *Plan) String() string {
	return p.src
}

// eval evaluates the subtree rooted at n directly.
func (n *node) eval(t float64) (Complex, error) {
	switch n.kind {
	case nodeNum:
		return n.val, nil
	case nodeImag:
		return unit, nil
	case nodeParam:
		return Real(t), nil
	case nodeCall:
		args := make([]Complex, len(n.args))
		for i, a := range n.args {
			v, err := a.eval(t)
			if err != nil {
				return Complex{}, err
			}
			args[i] = v
		}
		return call(n.fn, n.name, args)
	case nodeNeg:
		v, err := n.left.eval(t)
		if err != nil {
			return Complex{}, err
		}
		return v.Neg(), nil
	case nodeNop:
		return n.left.eval(t)
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodePow:
		l, err := n.left.eval(t)
		if err != nil {
			return Complex{}, err
		}
		r, err := n.right.eval(t)
		if err != nil {
			return Complex{}, err
		}
		return arith(n.kind, l, r)
	default:
		panic("curves: invalid AST node " + n.kind.String())
	}
}

// arith applies an arithmetic operator.
func arith(op nodeKind, l, r Complex) (Complex, error) {
	var v Complex
	switch op {
	case nodeAdd:
		v = l.Add(r)
	case nodeSub:
		v = l.Sub(r)
	case nodeMul:
		v = l.Mul(r)
	case nodeDiv:
		if r.IsZero() {
			return Complex{}, &EvalError{Kind: DivisionByZero, Op: "/"}
		}
		v = l.Div(r)
	case nodePow:
		return pow(l, r)
	default:
		panic("curves: invalid operator " + op.String())
	}
	return v, finite(opname(op), v, l, r)
}

// pow computes l^r, treating a zero base with an exponent whose real part is
// not positive as a division by zero.
func pow(l, r Complex) (Complex, error) {
	if l.IsZero() && !r.IsZero() && r.Re <= 0 {
		return Complex{}, &EvalError{Kind: DivisionByZero, Op: "^"}
	}
	v := l.Pow(r)
	return v, finite("^", v, l, r)
}

func call(fn Func, name string, args []Complex) (Complex, error) {
	for _, a := range args {
		if !a.IsFinite() {
			// Propagate non-finite inputs without judging the result.
			return fn.Call(args)
		}
	}
	v, err := fn.Call(args)
	if err != nil {
		return Complex{}, err
	}
	if !v.IsFinite() {
		return Complex{}, &EvalError{Kind: NonFinite, Op: name}
	}
	return v, nil
}

// finite returns an error if v is not finite but all of its inputs were.
func finite(op string, v, l, r Complex) error {
	if v.IsFinite() || !l.IsFinite() || !r.IsFinite() {
		return nil
	}
	return &EvalError{Kind: NonFinite, Op: op}
}

func opname(op nodeKind) string {
	switch op {
	case nodeAdd:
		return "+"
	case nodeSub:
		return "-"
	case nodeMul:
		return "*"
	case nodeDiv:
		return "/"
	case nodePow:
		return "^"
	default:
		return op.String()
	}
}

// EvalErrorKind classifies evaluation errors.
type EvalErrorKind int8

const (
	// DivisionByZero is division by a value whose magnitude is exactly zero,
	// including zero raised to a power with non-positive real part.
	DivisionByZero EvalErrorKind = iota + 1
	// NonFinite is a result with an infinite or NaN component computed from
	// finite inputs, e.g. an overflow.
	NonFinite
	// Domain is a function applied outside its domain, e.g. floor of a
	// non-real number.
	Domain
)

var evalErrorKindNames = [...]string{
	DivisionByZero: "DivisionByZero",
	NonFinite:      "NonFinite",
	Domain:         "Domain",
}

func (k EvalErrorKind) String() string {
	if k <= 0 || int(k) >= len(evalErrorKindNames) {
		return "EvalErrorKind(" + strconv.Itoa(int(k)) + ")"
	}
	return evalErrorKindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k EvalErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EvalErrorKind) UnmarshalText(b []byte) error {
	s := string(b)
	for i, name := range evalErrorKindNames {
		if name != "" && strings.EqualFold(name, s) {
			*k = EvalErrorKind(i)
			return nil
		}
	}
	return errors.New("curves: unknown evaluation error kind " + strconv.Quote(s))
}

// EvalError is an error from evaluating an expression at one parameter value.
type EvalError struct {
	// Kind classifies the error.
	Kind EvalErrorKind
	// Op names the operator or function that failed.
	Op string
}

func (err *EvalError) Error() string {
	switch err.Kind {
	case DivisionByZero:
		return "division by zero in " + err.Op
	case NonFinite:
		return "non-finite result from " + err.Op
	case Domain:
		return "argument outside domain of " + err.Op
	default:
		return err.Kind.String() + " in " + err.Op
	}
}
