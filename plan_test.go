package curves

import (
	"math"
	"testing"
)

func TestPlanMatchesTree(t *testing.T) {
	srcs := []string{
		"t",
		"-t",
		"2 + 3 * 4",
		"exp(i*t)",
		"cos(t) + i*sin(t)",
		"polar(1 + t/10, 4*t)",
		"1/(t-t)",
		"t^-t^-2",
		"mod(t, 2) - floor(t/2)",
		"sqrt(t*i) * conj(ln(t))",
		"two(t, one(zero)) * five(1, t, 2, t, 3)",
		"((((t+1)*2-3)/4+5)*6-7)^((((t+1)*2-3)/4+5)*6-7)",
	}
	ts := []float64{-2, -1, 0, 0.5, 1, 2, math.Pi, math.Inf(1), math.NaN()}
	for _, src := range srcs {
		e, err := ParseString(src, ParseFuncs(testfns))
		if err != nil {
			t.Fatalf("%q failed to parse: %v", src, err)
		}
		p := Compile(e)
		for _, x := range ts {
			want, werr := e.n.eval(x)
			got, gerr := p.Eval(x)
			if (werr == nil) != (gerr == nil) {
				t.Errorf("%q at %g: tree gave error %v, plan gave %v", src, x, werr, gerr)
				continue
			}
			if !same(want, got) {
				t.Errorf("%q at %g: tree gave %v, plan gave %v", src, x, want, got)
			}
		}
	}
}

func same(a, b Complex) bool {
	eq := func(x, y float64) bool {
		return x == y || math.IsNaN(x) && math.IsNaN(y)
	}
	return eq(a.Re, b.Re) && eq(a.Im, b.Im)
}

func TestCompileFolding(t *testing.T) {
	cases := []struct {
		name   string
		src    string
		instrs int
		folded int
	}{
		{"param", "t", 1, 0},
		{"num", "2", 1, 0},
		{"imag", "i", 1, 0},
		{"const", "pi", 1, 1},
		{"arith", "2 + 3 * 4", 1, 1},
		{"partial", "t * (2*pi)", 3, 1},
		{"both", "(1+2) * t + (3+4)", 5, 2},
		{"call", "sin(t) + cos(0)", 4, 1},
		{"error", "1/0 + t", 5, 0},
		{"nested", "exp(i*pi/2) * t", 3, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := ParseString(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			cc := compiler{}
			cc.emit(e.n)
			if len(cc.code) != c.instrs {
				t.Errorf("%q compiled to %d instructions, want %d", c.src, len(cc.code), c.instrs)
			}
			if cc.folded != c.folded {
				t.Errorf("%q folded %d subexpressions, want %d", c.src, cc.folded, c.folded)
			}
			if cc.cur != 1 {
				t.Errorf("%q leaves %d values on the stack", c.src, cc.cur)
			}
		})
	}
}

func TestPlanDeepStack(t *testing.T) {
	// Right-nested sums need one stack slot per level.
	src := "t"
	for i := 0; i < 40; i++ {
		src = "t+(" + src + ")"
	}
	p, err := CompileString(src)
	if err != nil {
		t.Fatal(err)
	}
	if p.depth <= 16 {
		t.Fatalf("stack depth %d doesn't exceed the fixed buffer", p.depth)
	}
	r, err := p.Eval(1)
	if err != nil {
		t.Fatal(err)
	}
	if r != Real(41) {
		t.Errorf("want 41, got %v", r)
	}
}

func TestPlanString(t *testing.T) {
	p, err := CompileString("2*t")
	if err != nil {
		t.Fatal(err)
	}
	if s := p.String(); s != "((2) × (t))" {
		t.Errorf("wrong plan string %q", s)
	}
}
