package curves

import (
	"bufio"
	"context"
	"errors"
	"strconv"
	"strings"
)

// Mode is the kind of curve a sheet describes.
type Mode int8

const (
	// ModeCurve is a curve given by its coordinates, either as x(t), y(t),
	// and optionally z(t), or as a vector r(t) = (x, y, z). Each coordinate
	// is the real part of its definition.
	ModeCurve Mode = iota + 1
	// ModeComplex is a curve given by one complex function f(t), laid out by
	// a Mapping.
	ModeComplex
)

func (m Mode) String() string {
	switch m {
	case ModeCurve:
		return "curve"
	case ModeComplex:
		return "complex"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Definition is one definition in a sheet.
type Definition struct {
	// Name is the defined name.
	Name string
	// Line is the 1-based line of the definition.
	Line int
	// Param is whether the definition is a function of t. Definitions that
	// are not are constants.
	Param bool
	// Plan is the compiled right-hand side. It is nil for vectors.
	Plan *Plan
	// Vector holds the compiled components of a vector definition of r.
	Vector []*Plan
}

// String formats the definition with its compiled right-hand side.
func (d *Definition) String() string {
	if d.Vector == nil {
		return d.Name + " = " + d.Plan.String()
	}
	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteString(" = (")
	for k, p := range d.Vector {
		if k > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Sheet is a set of definitions describing one curve.
//
// A sheet is text with one definition per line, either
//
//	name = expr
//	name(t) = expr
//
// Blank lines and lines starting with # or // are ignored. A definition is a
// function of t if its left side says so, if its right side uses t, or if it
// defines one of the coordinate names x, y, z, or f. Later lines may refer to
// earlier definitions: constants by bare name, functions as name(expr) with a
// real argument. Defining a name again replaces it for the lines after.
//
// The right side of r may instead be a vector of three expressions,
//
//	r(t) = (x, y, z)
//
// which later lines cannot refer to.
//
// A vector r makes a ModeCurve sheet, as does defining x and y (and
// optionally z, which defaults to 0). Otherwise, defining f makes a
// ModeComplex sheet.
type Sheet struct {
	// Mode is the kind of curve the sheet describes.
	Mode Mode

	defs  map[string]*Definition
	order []*Definition
}

// SheetError is an error in one line of a sheet.
type SheetError struct {
	// Line is the 1-based line number, or 0 for errors about the sheet as a
	// whole.
	Line int
	// Name is the name being defined, if known.
	Name string
	// Err is the underlying error. Errors in the right side of a definition
	// are InputErrors with positions relative to the start of that side.
	Err error
}

func (err *SheetError) Error() string {
	var b strings.Builder
	if err.Line > 0 {
		b.WriteString("line ")
		b.WriteString(strconv.Itoa(err.Line))
		b.WriteString(": ")
	}
	if err.Name != "" {
		b.WriteString(err.Name)
		b.WriteString(": ")
	}
	b.WriteString(err.Err.Error())
	return b.String()
}

func (err *SheetError) Unwrap() error {
	return err.Err
}

var (
	errNoEquals  = errors.New("missing '=' in definition")
	errNoCurve   = errors.New("sheet defines no curve: define x and y, or f")
	errBadParams = errors.New("the only allowed parameter is t")
	errVecSize   = errors.New("vector needs 3 components")
)

// ParseSheet parses and compiles a sheet. The options apply to every
// definition, before the sheet's own names.
func ParseSheet(src string, opts ...ParseOption) (*Sheet, error) {
	s := &Sheet{defs: make(map[string]*Definition)}
	names := map[string]Func{}
	sc := bufio.NewScanner(strings.NewReader(src))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "//") {
			continue
		}
		lhs, rhs, ok := strings.Cut(text, "=")
		if !ok {
			return nil, &SheetError{Line: line, Err: errNoEquals}
		}
		name, param, err := sheetlhs(lhs)
		if err != nil {
			return nil, &SheetError{Line: line, Name: name, Err: err}
		}
		// Copy so that earlier plans keep the names they were compiled with.
		local := make(map[string]Func, len(names))
		for k, v := range names {
			local[k] = v
		}
		popts := append(opts[:len(opts):len(opts)], ParseFuncs(local))
		d := &Definition{Name: name, Line: line}
		if parts := vecparts(rhs); name == "r" && parts != nil {
			if len(parts) != 3 {
				return nil, &SheetError{Line: line, Name: name, Err: errVecSize}
			}
			for _, part := range parts {
				e, err := ParseString(part.src, popts...)
				if err != nil {
					return nil, &SheetError{Line: line, Name: name, Err: shiftcol(err, part.off)}
				}
				d.Vector = append(d.Vector, Compile(e))
			}
			d.Param = true
			delete(names, name)
			s.defs[name] = d
			s.order = append(s.order, d)
			continue
		}
		e, err := ParseString(rhs, popts...)
		if err != nil {
			return nil, &SheetError{Line: line, Name: name, Err: err}
		}
		d.Param = param || e.Param() || coordinate(name)
		d.Plan = Compile(e)
		if d.Param {
			names[name] = sheetfn{d}
		} else {
			v, err := d.Plan.Eval(0)
			if err != nil {
				return nil, &SheetError{Line: line, Name: name, Err: err}
			}
			names[name] = Niladic(v)
		}
		s.defs[name] = d
		s.order = append(s.order, d)
	}
	if err := sc.Err(); err != nil {
		return nil, &SheetError{Line: line, Err: err}
	}
	switch {
	case s.vector() != nil, s.defs["x"] != nil && s.defs["y"] != nil:
		s.Mode = ModeCurve
	case s.defs["f"] != nil:
		s.Mode = ModeComplex
	default:
		return nil, &SheetError{Err: errNoCurve}
	}
	lg := logger()
	lg.Debug().
		Int("definitions", len(s.order)).
		Stringer("mode", s.Mode).
		Msg("parsed sheet")
	return s, nil
}

// sheetlhs parses the left side of a definition.
func sheetlhs(lhs string) (name string, param bool, err error) {
	toks, err := Tokenize(lhs)
	if err != nil {
		return "", false, err
	}
	if toks[0].Kind != TokenIdent {
		return "", false, &UnexpectedTokenError{Col: toks[0].Pos, Token: toks[0].Text}
	}
	name = toks[0].Text
	if name == "i" || name == "t" {
		return name, false, errors.New("cannot redefine " + name)
	}
	switch len(toks) {
	case 2:
		return name, false, nil
	case 5:
		if toks[1].Kind == TokenOpen && toks[3].Kind == TokenClose {
			if toks[2].Text != "t" {
				return name, false, errBadParams
			}
			return name, true, nil
		}
	}
	if len(toks) > 2 && toks[1].Kind == TokenOpen {
		return name, false, errBadParams
	}
	return name, false, &UnexpectedTokenError{Col: toks[1].Pos, Token: toks[1].Text}
}

// vecpart is one component of a vector. off is the column in the right side
// just before the component starts.
type vecpart struct {
	src string
	off int
}

// vecparts splits the right side of a definition into the components of a
// parenthesized vector. It returns nil if rhs is not of that form.
func vecparts(rhs string) []vecpart {
	toks, err := Tokenize(rhs)
	if err != nil || toks[0].Kind != TokenOpen {
		return nil
	}
	runes := []rune(rhs)
	var parts []vecpart
	start, depth := toks[0].Pos, 0
	for k, tok := range toks {
		switch tok.Kind {
		case TokenOpen:
			depth++
		case TokenClose:
			depth--
			if depth == 0 {
				if toks[k+1].Kind != TokenEnd || parts == nil {
					return nil
				}
				return append(parts, vecpart{src: string(runes[start : tok.Pos-1]), off: start})
			}
		case TokenSep:
			if depth == 1 {
				parts = append(parts, vecpart{src: string(runes[start : tok.Pos-1]), off: start})
				start = tok.Pos
			}
		}
	}
	return nil
}

// shiftcol moves the position of an InputError right by n columns.
func shiftcol(err error, n int) error {
	switch err := err.(type) {
	case *UnexpectedTokenError:
		err.Col += n
	case *UnexpectedEndError:
		err.Col += n
		if err.Open > 0 {
			err.Open += n
		}
	case *UnknownIdentifierError:
		err.Col += n
	case *ArityError:
		err.Col += n
	case *LexError:
		err.Col += n
	}
	return err
}

func coordinate(name string) bool {
	switch name {
	case "x", "y", "z", "f":
		return true
	}
	return false
}

// sheetfn is a sheet definition callable from later definitions.
type sheetfn struct {
	d *Definition
}

func (f sheetfn) Call(args []Complex) (Complex, error) {
	if args[0].Im != 0 {
		return Complex{}, &EvalError{Kind: Domain, Op: f.d.Name}
	}
	return f.d.Plan.Eval(args[0].Re)
}

func (f sheetfn) Arity() int {
	return 1
}

// Lookup returns the current definition of name, or nil if there is none.
func (s *Sheet) Lookup(name string) *Definition {
	return s.defs[name]
}

// Definitions returns the sheet's definitions in source order, including
// those later replaced.
func (s *Sheet) Definitions() []*Definition {
	return s.order
}

// Sample samples the sheet's curve. Curve sheets ignore m, but it must
// still be a valid mapping.
func (s *Sheet) Sample(r SampleRange, m Mapping) (*Result, error) {
	return sample(s.points(m), r, m)
}

// SampleConcurrent is like Sample but uses workers goroutines, as with the
// package-level SampleConcurrent.
func (s *Sheet) SampleConcurrent(ctx context.Context, r SampleRange, m Mapping, workers int) (*Result, error) {
	return sampleConcurrent(ctx, s.points(m), r, m, workers)
}

// vector returns the current definition of r if it is a vector.
func (s *Sheet) vector() *Definition {
	if r := s.defs["r"]; r != nil && r.Vector != nil {
		return r
	}
	return nil
}

func (s *Sheet) points(m Mapping) pointFunc {
	if s.Mode == ModeComplex {
		return mapped(s.defs["f"].Plan, m)
	}
	// A missing z stays nil and reads as 0.
	var xyz [3]*Plan
	if r := s.vector(); r != nil {
		copy(xyz[:], r.Vector)
	} else {
		xyz[0], xyz[1] = s.defs["x"].Plan, s.defs["y"].Plan
		if z := s.defs["z"]; z != nil {
			xyz[2] = z.Plan
		}
	}
	return func(t float64) (Point, error) {
		var c [3]float64
		for k, p := range xyz {
			if p == nil {
				continue
			}
			v, err := p.Eval(t)
			if err != nil {
				return Point{}, err
			}
			c[k] = v.Re
		}
		return Point{X: c[0], Y: c[1], Z: c[2]}, nil
	}
}
