package curves_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/zephyrtronium/bigfloat"

	"github.com/helixplot/curves"
)

// oracle evaluates a real function at high precision and rounds to float64.
func oracle(f func(z, x *big.Float) *big.Float, x float64) float64 {
	in := new(big.Float).SetPrec(200).SetFloat64(x)
	r, _ := f(new(big.Float).SetPrec(200), in).Float64()
	return r
}

func TestComplexRealOracle(t *testing.T) {
	xs := []float64{1e-10, 0.001, 0.5, 1, math.Sqrt2, 2, math.E, 10, 123.456, 700}
	const ulp = 4e-16
	for _, x := range xs {
		if got, want := curves.Real(x).Exp(), oracle(bigfloat.Exp, x); !close1(got.Re, want, ulp) || got.Im != 0 {
			t.Errorf("exp(%g): want %g, got %v", x, want, got)
		}
		if got, want := curves.Real(x).Log(), oracle(bigfloat.Log, x); !close1(got.Re, want, ulp) || got.Im != 0 {
			t.Errorf("ln(%g): want %g, got %v", x, want, got)
		}
	}
}

func TestComplexPowOracle(t *testing.T) {
	cases := []struct {
		x, y float64
	}{
		{2, 0.5},
		{2, 10},
		{3, -2},
		{10, 0.3},
		{0.5, 7.25},
		{1.0001, 1000},
		{7, 1.0 / 3},
		{1e-3, 2.5},
	}
	const tol = 1e-14
	for _, c := range cases {
		x := new(big.Float).SetPrec(200).SetFloat64(c.x)
		y := new(big.Float).SetPrec(200).SetFloat64(c.y)
		want, _ := bigfloat.Pow(new(big.Float).SetPrec(200), x, y).Float64()
		got := curves.Real(c.x).Pow(curves.Real(c.y))
		if !close1(got.Re, want, tol) || got.Im != 0 {
			t.Errorf("%g^%g: want %g, got %v", c.x, c.y, want, got)
		}
	}
}

func TestComplexPowSpecial(t *testing.T) {
	c := func(re, im float64) curves.Complex { return curves.Complex{Re: re, Im: im} }
	cases := []struct {
		name string
		z, w curves.Complex
		want curves.Complex
	}{
		{"zero-zero", c(0, 0), c(0, 0), c(1, 0)},
		{"zero-pos", c(0, 0), c(2, 0), c(0, 0)},
		{"zero-posimag", c(0, 0), c(0.5, 3), c(0, 0)},
		{"zero-neg", c(0, 0), c(-1, 0), c(math.Inf(1), 0)},
		{"exact-int", c(3, 0), c(9, 0), c(19683, 0)},
		{"neg-int", c(-2, 0), c(3, 0), c(-8, 0)},
		{"neg-recip", c(-2, 0), c(-1, 0), c(-0.5, 0)},
		{"i-squared", c(0, 1), c(2, 0), c(-1, 0)},
		{"one-plus-i-squared", c(1, 1), c(2, 0), c(0, 2)},
		{"i-to-i", c(0, 1), c(0, 1), c(math.Exp(-math.Pi/2), 0)},
		{"neg-half", c(-4, 0), c(0.5, 0), c(0, 2)},
	}
	for _, cs := range cases {
		t.Run(cs.name, func(t *testing.T) {
			got := cs.z.Pow(cs.w)
			if !near(got, cs.want, 1e-15) {
				t.Errorf("%v^%v: want %v, got %v", cs.z, cs.w, cs.want, got)
			}
		})
	}
}

func TestComplexOps(t *testing.T) {
	c := func(re, im float64) curves.Complex { return curves.Complex{Re: re, Im: im} }
	a, b := c(1, 2), c(3, -4)
	if got := a.Add(b); got != c(4, -2) {
		t.Errorf("add: got %v", got)
	}
	if got := a.Sub(b); got != c(-2, 6) {
		t.Errorf("sub: got %v", got)
	}
	if got := a.Mul(b); got != c(11, 2) {
		t.Errorf("mul: got %v", got)
	}
	if got := a.Div(b); !near(got, c(-0.2, 0.4), 1e-15) {
		t.Errorf("div: got %v", got)
	}
	if got := a.Neg(); got != c(-1, -2) {
		t.Errorf("neg: got %v", got)
	}
	if got := a.Conj(); got != c(1, -2) {
		t.Errorf("conj: got %v", got)
	}
	if got := b.Abs(); got != 5 {
		t.Errorf("abs: got %v", got)
	}
	if got := c(-1, 0).Arg(); got != math.Pi {
		t.Errorf("arg(-1): got %v", got)
	}
	if got := c(-1, 0).Sqrt(); got != c(0, 1) {
		t.Errorf("sqrt(-1): got %v", got)
	}
	// Real products stay real even with infinities.
	if got := c(math.Inf(1), 0).Mul(c(2, 0)); got != c(math.Inf(1), 0) {
		t.Errorf("inf*2: got %v", got)
	}
	if !c(1, 0).IsFinite() || c(math.NaN(), 0).IsFinite() || c(0, math.Inf(-1)).IsFinite() {
		t.Error("wrong IsFinite")
	}
	if !c(0, 0).IsZero() || !c(math.Copysign(0, -1), 0).IsZero() || c(0, 1e-300).IsZero() {
		t.Error("wrong IsZero")
	}
	if s := a.String(); s != "(1+2i)" {
		t.Errorf("wrong string %q", s)
	}
}

func TestComplexNegativeZeroBranch(t *testing.T) {
	negzero := math.Copysign(0, -1)
	for _, z := range []curves.Complex{{Re: -4, Im: 0}, {Re: -4, Im: negzero}} {
		if got := z.Sqrt(); got != (curves.Complex{Re: 0, Im: 2}) {
			t.Errorf("sqrt(%v): want (0+2i), got %v", z, got)
		}
		if got := z.Arg(); got != math.Pi {
			t.Errorf("arg(%v): want π, got %v", z, got)
		}
		if got := z.Log(); !near(got, curves.Complex{Re: math.Log(4), Im: math.Pi}, 1e-15) {
			t.Errorf("ln(%v): want (ln 4 + πi), got %v", z, got)
		}
		if got := z.Pow(curves.Real(0.5)); !near(got, curves.Complex{Im: 2}, 1e-15) {
			t.Errorf("%v^0.5: want (0+2i), got %v", z, got)
		}
	}
	// Genuinely negative imaginary parts stay below the cut.
	if got := (curves.Complex{Re: -4, Im: -1e-300}).Arg(); got != -math.Pi {
		t.Errorf("arg just below the cut: got %v", got)
	}
}

func TestComplexTrigIdentities(t *testing.T) {
	zs := []curves.Complex{{Re: 0.3, Im: 0.7}, {Re: -1.2, Im: 0.1}, {Re: 2, Im: -2}, {Re: 0.5}}
	one := curves.Real(1)
	for _, z := range zs {
		s, c := z.Sin(), z.Cos()
		if got := s.Mul(s).Add(c.Mul(c)); !near(got, one, 1e-12) {
			t.Errorf("sin²+cos² at %v: got %v", z, got)
		}
		sh, ch := z.Sinh(), z.Cosh()
		if got := ch.Mul(ch).Sub(sh.Mul(sh)); !near(got, one, 1e-12) {
			t.Errorf("cosh²-sinh² at %v: got %v", z, got)
		}
		if got, want := z.Tan(), s.Div(c); !near(got, want, 1e-12) {
			t.Errorf("tan at %v: want %v, got %v", z, want, got)
		}
		if got, want := z.Tanh(), sh.Div(ch); !near(got, want, 1e-12) {
			t.Errorf("tanh at %v: want %v, got %v", z, want, got)
		}
		if got := z.Log().Exp(); !near(got, z, 1e-12) {
			t.Errorf("exp(ln) at %v: got %v", z, got)
		}
		if got := z.Sqrt(); !near(got.Mul(got), z, 1e-12) || got.Re < 0 {
			t.Errorf("sqrt at %v: got %v", z, got)
		}
	}
}
