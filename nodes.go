package curves

import (
	"strconv"
	"strings"
)

// node is a node in the abstract syntax tree of an expression. Each child is
// owned by exactly one parent.
type node struct {
	kind nodeKind

	// name is the literal text of a number or the name of a function.
	name string
	// val is the value of a number literal.
	val Complex
	fn  Func

	left  *node
	right *node
	// args are the arguments of a call, in order.
	args []*node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum   // push val
	nodeImag  // push i
	nodeParam // push t
	nodeCall  // evaluate args, push fn(args); constants are calls with no args

	nodeNeg // evaluate left, then negate
	nodeNop // evaluate left
	nodeAdd // evaluate left, add right
	nodeSub // evaluate left, sub right
	nodeMul // evaluate left, mul right
	nodeDiv // evaluate left, div by right
	nodePow // evaluate left, exp by right
)

var nodeKindNames = [...]string{
	nodeNone:  "None",
	nodeNum:   "Num",
	nodeImag:  "Imag",
	nodeParam: "Param",
	nodeCall:  "Call",
	nodeNeg:   "Neg",
	nodeNop:   "Nop",
	nodeAdd:   "Add",
	nodeSub:   "Sub",
	nodeMul:   "Mul",
	nodeDiv:   "Div",
	nodePow:   "Pow",
}

func (k nodeKind) String() string {
	if k < 0 || int(k) >= len(nodeKindNames) {
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
	return nodeKindNames[k]
}

// param reports whether the subtree rooted at n refers to the parameter.
func (n *node) param() bool {
	if n == nil {
		return false
	}
	if n.kind == nodeParam {
		return true
	}
	for _, a := range n.args {
		if a.param() {
			return true
		}
	}
	return n.left.param() || n.right.param()
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b, false)
	return b.String()
}

// fmt writes n fully parenthesized. The output parses to the same tree.
func (n *node) fmt(b *strings.Builder, alt bool) {
	b.WriteByte('(')
	defer b.WriteByte(')')
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
		if n.left != nil {
			n.left.fmt(b, alt)
		}
		b.WriteByte('#')
		if n.right != nil {
			n.right.fmt(b, alt)
		}
		b.WriteByte('$')
	case nodeNum:
		b.WriteString(n.name)
	case nodeImag:
		b.WriteByte('i')
	case nodeParam:
		b.WriteByte('t')
	case nodeCall:
		b.WriteString(n.name)
		if len(n.args) == 0 {
			return
		}
		b.WriteByte('(')
		for i, a := range n.args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.fmt(b, alt)
		}
		b.WriteByte(')')
	case nodeNeg:
		b.WriteByte('-')
		n.left.fmt(b, alt)
	case nodeNop:
		b.WriteByte('+')
		n.left.fmt(b, alt)
	case nodeAdd:
		n.left.fmt(b, alt)
		b.WriteString(" + ")
		n.right.fmt(b, alt)
	case nodeSub:
		n.left.fmt(b, alt)
		b.WriteString(" - ")
		n.right.fmt(b, alt)
	case nodeMul:
		n.left.fmt(b, alt)
		if !alt {
			b.WriteString(" * ")
		} else {
			b.WriteString(" × ")
		}
		n.right.fmt(b, alt)
	case nodeDiv:
		n.left.fmt(b, alt)
		if !alt {
			b.WriteString(" / ")
		} else {
			b.WriteString(" ÷ ")
		}
		n.right.fmt(b, alt)
	case nodePow:
		n.left.fmt(b, alt)
		b.WriteString(" ^ ")
		n.right.fmt(b, alt)
	default:
		panic("curves: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}
