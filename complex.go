package curves

import (
	"math"
	"math/cmplx"
	"strconv"
)

// Complex is a complex number with float64 components. Its operations follow
// IEEE-754 semantics; they never return errors; the evaluator decides which
// results are errors.
type Complex struct {
	Re, Im float64
}

// Real returns x as a Complex with zero imaginary part.
func Real(x float64) Complex {
	return Complex{Re: x}
}

var (
	zero = Complex{}
	one  = Complex{Re: 1}
	unit = Complex{Im: 1}
)

func (z Complex) c128() complex128 {
	return complex(z.Re, z.Im)
}

func from128(c complex128) Complex {
	return Complex{Re: real(c), Im: imag(c)}
}

// IsZero reports whether both components of z are exactly zero.
func (z Complex) IsZero() bool {
	return z.Re == 0 && z.Im == 0
}

// IsFinite reports whether neither component of z is NaN or infinite.
func (z Complex) IsFinite() bool {
	return !math.IsNaN(z.Re) && !math.IsInf(z.Re, 0) && !math.IsNaN(z.Im) && !math.IsInf(z.Im, 0)
}

func (z Complex) Add(w Complex) Complex {
	return Complex{z.Re + w.Re, z.Im + w.Im}
}

func (z Complex) Sub(w Complex) Complex {
	return Complex{z.Re - w.Re, z.Im - w.Im}
}

func (z Complex) Mul(w Complex) Complex {
	if z.Im == 0 && w.Im == 0 {
		// Keep real products exactly real, so that e.g. inf*2 doesn't pick up
		// a NaN imaginary part from inf*0.
		return Complex{Re: z.Re * w.Re}
	}
	return Complex{z.Re*w.Re - z.Im*w.Im, z.Re*w.Im + z.Im*w.Re}
}

// Div returns z/w. Division by zero yields infinities or NaN as complex128
// division does.
func (z Complex) Div(w Complex) Complex {
	if z.Im == 0 && w.Im == 0 {
		return Complex{Re: z.Re / w.Re}
	}
	return from128(z.c128() / w.c128())
}

func (z Complex) Neg() Complex {
	return Complex{-z.Re, -z.Im}
}

func (z Complex) Conj() Complex {
	return Complex{z.Re, -z.Im}
}

// Abs returns the magnitude of z.
func (z Complex) Abs() float64 {
	return math.Hypot(z.Re, z.Im)
}

// Arg returns the principal argument of z, in (-π, π].
func (z Complex) Arg() float64 {
	z = z.canon()
	return math.Atan2(z.Im, z.Re)
}

// canon replaces a negative zero imaginary part with positive zero, so that
// negative reals are on the principal side of the branch cut along the
// negative real axis.
func (z Complex) canon() Complex {
	if z.Im == 0 {
		z.Im = 0
	}
	return z
}

func (z Complex) Exp() Complex {
	if z.Im == 0 {
		return Real(math.Exp(z.Re))
	}
	return from128(cmplx.Exp(z.c128()))
}

// Log returns the principal natural logarithm of z.
func (z Complex) Log() Complex {
	if z.Im == 0 && z.Re > 0 {
		return Real(math.Log(z.Re))
	}
	return from128(cmplx.Log(z.canon().c128()))
}

// Sqrt returns the principal square root of z.
func (z Complex) Sqrt() Complex {
	if z.Im == 0 && z.Re >= 0 {
		return Real(math.Sqrt(z.Re))
	}
	return from128(cmplx.Sqrt(z.canon().c128()))
}

func (z Complex) Sin() Complex {
	if z.Im == 0 {
		return Real(math.Sin(z.Re))
	}
	return from128(cmplx.Sin(z.c128()))
}

func (z Complex) Cos() Complex {
	if z.Im == 0 {
		return Real(math.Cos(z.Re))
	}
	return from128(cmplx.Cos(z.c128()))
}

func (z Complex) Tan() Complex {
	if z.Im == 0 {
		return Real(math.Tan(z.Re))
	}
	return from128(cmplx.Tan(z.c128()))
}

func (z Complex) Sinh() Complex {
	if z.Im == 0 {
		return Real(math.Sinh(z.Re))
	}
	return from128(cmplx.Sinh(z.c128()))
}

func (z Complex) Cosh() Complex {
	if z.Im == 0 {
		return Real(math.Cosh(z.Re))
	}
	return from128(cmplx.Cosh(z.c128()))
}

func (z Complex) Tanh() Complex {
	if z.Im == 0 {
		return Real(math.Tanh(z.Re))
	}
	return from128(cmplx.Tanh(z.c128()))
}

// maxIntPow is the largest integer exponent computed by repeated squaring.
const maxIntPow = 1024

// Pow returns the principal value of z^w, defined as exp(w ln z).
//
// A positive real base with a real exponent uses math.Pow. Other bases with
// integer exponents are computed by repeated multiplication, since those
// powers are single-valued and this keeps e.g. (-2)^9 exact. A zero base gives 1 for a zero exponent, 0 for
// an exponent with positive real part, and infinity otherwise.
func (z Complex) Pow(w Complex) Complex {
	switch {
	case w.IsZero():
		return one
	case z.IsZero():
		if w.Re > 0 {
			return zero
		}
		return Real(math.Inf(1))
	case z.Im == 0 && z.Re > 0 && w.Im == 0:
		return Real(math.Pow(z.Re, w.Re))
	case w.Im == 0 && w.Re == math.Trunc(w.Re) && math.Abs(w.Re) <= maxIntPow:
		return z.powi(int(w.Re))
	}
	return w.Mul(z.Log()).Exp()
}

func (z Complex) powi(n int) Complex {
	if n < 0 {
		return one.Div(z.powi(-n))
	}
	r := one
	for n > 0 {
		if n&1 != 0 {
			r = r.Mul(z)
		}
		z = z.Mul(z)
		n >>= 1
	}
	return r
}

// String formats z like a Go complex128, e.g. "(1+2i)".
func (z Complex) String() string {
	return strconv.FormatComplex(z.c128(), 'g', -1, 128)
}
