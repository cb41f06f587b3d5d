// Package curves samples parametric curves given as complex-valued
// expressions of a real parameter t.
//
// An expression such as "exp(i*t)" or "cos(t) + i*sin(t)/2" is parsed once,
// compiled into a Plan, and evaluated at evenly spaced values of t. The
// results are packed into a flat buffer of float32 triples, x0, y0, z0, x1,
// y1, z1, ..., ready to hand to a renderer. A Mapping chooses how each
// complex value f(t) becomes a point: ParamReIm gives (t, Re f, Im f), and
// ReImParam gives (Re f, Im f, t).
//
// # Syntax
//
// Numbers are decimal with optional fraction and exponent. The name i is the
// imaginary unit and t is the parameter. Operators, loosest first, are + and
// -; * and / (also × and ÷); unary - and +; and ^. Exponentiation is
// right-associative, so "2^3^2" is 512, and it binds more tightly than unary
// minus, so "-2^2" is -4. There is no implicit multiplication: "2 t" is an
// error; write "2*t".
//
// # Functions
//
// The default functions and constants are:
//
//	name               arity  meaning
//	exp                1      complex exponential
//	ln                 1      natural logarithm, principal branch
//	log                1      base-10 logarithm, principal branch
//	sqrt               1      square root, principal branch
//	sin, cos, tan      1      complex trigonometric functions
//	sinh, cosh, tanh   1      complex hyperbolic functions
//	abs                1      magnitude, with zero imaginary part
//	arg                1      principal argument in (-π, π]
//	conj               1      complex conjugate
//	re, im             1      real or imaginary part, as a real number
//	floor, ceil, round 1      real arguments only
//	pow                2      pow(a, b) = a^b
//	polar              2      polar(r, θ) = r·exp(iθ)
//	mod                2      floored modulus of real arguments
//	pi, e, tau         0      constants, written without brackets
//
// Powers a^b are exp(b·ln a) on the principal branch, computed exactly by
// repeated multiplication for small integer exponents. 0^0 is 1, 0^b is 0
// when Re b > 0, and other powers of zero are division by zero.
//
// Parse options add, replace, or remove functions for one parse.
//
// # Errors
//
// Malformed expressions fail before any evaluation with an error implementing
// InputError, which reports the 1-based column of the problem. Sampling never
// stops for one bad value: a sample whose evaluation divides by zero, leaves
// a function's domain, or overflows to a non-finite value becomes the point
// (0, 0, 0) and is recorded in the Result's Errors.
//
// # Sheets
//
// ParseSheet reads several named definitions, such as
//
//	a = 2
//	x(t) = cos(t)
//	y(t) = sin(a*t)
//
// and samples the curve they describe. The coordinates may also be given
// together as a vector, r(t) = (cos(t), sin(a*t), t).
package curves
