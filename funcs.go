package curves

import "math"

// Func is a function from complex numbers to complex numbers. Functions must
// be pure: the same arguments always give the same result, and Call must be
// safe to use concurrently.
type Func interface {
	// Call evaluates the function. args has exactly Arity elements. Call may
	// modify the elements of args. Results that are not finite need not be
	// reported as errors; the evaluator checks them.
	Call(args []Complex) (Complex, error)

	// Arity returns the number of arguments the function takes. The parser
	// rejects calls with any other number of arguments. Functions of zero
	// arguments are constants and are written without brackets.
	Arity() int
}

var globalfuncs = map[string]Func{
	"exp":  Monadic(Complex.Exp),
	"ln":   Monadic(Complex.Log),
	"log":  Monadic(func(z Complex) Complex { return z.Log().Div(Real(math.Ln10)) }),
	"sqrt": Monadic(Complex.Sqrt),

	"sin":  Monadic(Complex.Sin),
	"cos":  Monadic(Complex.Cos),
	"tan":  Monadic(Complex.Tan),
	"sinh": Monadic(Complex.Sinh),
	"cosh": Monadic(Complex.Cosh),
	"tanh": Monadic(Complex.Tanh),

	"abs":  Monadic(func(z Complex) Complex { return Real(z.Abs()) }),
	"arg":  Monadic(func(z Complex) Complex { return Real(z.Arg()) }),
	"conj": Monadic(Complex.Conj),
	"re":   Monadic(func(z Complex) Complex { return Real(z.Re) }),
	"im":   Monadic(func(z Complex) Complex { return Real(z.Im) }),

	// real-only
	"floor": realfn{"floor", math.Floor},
	"ceil":  realfn{"ceil", math.Ceil},
	"round": realfn{"round", math.Round},
	"mod":   modfn{},

	"pow": Dyadic(func(a, b Complex) (Complex, error) {
		return pow(a, b)
	}),
	"polar": Dyadic(func(r, theta Complex) (Complex, error) {
		return r.Mul(theta.Mul(unit).Exp()), nil
	}),

	// constants
	"pi":  Niladic(Real(math.Pi)),
	"e":   Niladic(Real(math.E)),
	"tau": Niladic(Real(2 * math.Pi)),
}

// Names returns the names of the default functions and constants in sorted
// order.
func Names() []string {
	names := make([]string, 0, len(globalfuncs))
	for k := range globalfuncs {
		names = append(names, k)
	}
	sortstrs(names)
	return names
}

// Lookup returns the default function or constant with the given name, or
// nil if there is none.
func Lookup(name string) Func {
	return globalfuncs[name]
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

type monadic struct {
	f func(Complex) Complex
}

func (m monadic) Call(args []Complex) (Complex, error) {
	return m.f(args[0]), nil
}

func (m monadic) Arity() int {
	return 1
}

// Monadic wraps a function of one variable into a Func.
func Monadic(f func(Complex) Complex) Func {
	return monadic{f}
}

type dyadic struct {
	f func(a, b Complex) (Complex, error)
}

func (d dyadic) Call(args []Complex) (Complex, error) {
	return d.f(args[0], args[1])
}

func (d dyadic) Arity() int {
	return 2
}

// Dyadic wraps a function of two variables into a Func. If f is called on
// arguments outside its domain, it should return an *EvalError.
func Dyadic(f func(a, b Complex) (Complex, error)) Func {
	return dyadic{f}
}

type niladic struct {
	v Complex
}

func (n niladic) Call(args []Complex) (Complex, error) {
	return n.v, nil
}

func (n niladic) Arity() int {
	return 0
}

// Niladic wraps a constant into a Func.
func Niladic(v Complex) Func {
	return niladic{v}
}

// realfn is a function defined only on the reals.
type realfn struct {
	name string
	f    func(float64) float64
}

func (r realfn) Call(args []Complex) (Complex, error) {
	if args[0].Im != 0 {
		return Complex{}, &EvalError{Kind: Domain, Op: r.name}
	}
	return Real(r.f(args[0].Re)), nil
}

func (r realfn) Arity() int {
	return 1
}

// modfn is the floored modulus of reals. The result has the sign of the
// divisor.
type modfn struct{}

func (modfn) Call(args []Complex) (Complex, error) {
	a, b := args[0], args[1]
	if a.Im != 0 || b.Im != 0 {
		return Complex{}, &EvalError{Kind: Domain, Op: "mod"}
	}
	if b.Re == 0 {
		return Complex{}, &EvalError{Kind: DivisionByZero, Op: "mod"}
	}
	return Real(a.Re - b.Re*math.Floor(a.Re/b.Re)), nil
}

func (modfn) Arity() int {
	return 2
}
