package curves

import "strconv"

// UnexpectedTokenError is an error indicating a token that cannot appear
// where it was found, such as a close parenthesis with no open one or a term
// directly following another term. It implements InputError.
type UnexpectedTokenError struct {
	// Col is the position of the token.
	Col int
	// Token is the text of the token.
	Token string
}

func (err *UnexpectedTokenError) Error() string {
	return errpos(err.Col, "unexpected "+strconv.Quote(err.Token))
}

func (err *UnexpectedTokenError) Pos() int {
	return err.Col
}

// UnexpectedEndError is an error indicating that the input ended where an
// operand or a close parenthesis was required. It implements InputError.
type UnexpectedEndError struct {
	// Col is the position of the end of the input.
	Col int
	// Open is the position of the innermost unclosed open parenthesis, or 0
	// if the input ended outside any parentheses.
	Open int
}

func (err *UnexpectedEndError) Error() string {
	if err.Open > 0 {
		return errpos(err.Col, "open bracket at "+strconv.Itoa(err.Open)+" with no close bracket")
	}
	if err.Col <= 1 {
		return errpos(err.Col, "no expression")
	}
	return errpos(err.Col, "no expression at end")
}

func (err *UnexpectedEndError) Pos() int {
	return err.Col
}

// UnknownIdentifierError is an error indicating a name that is neither the
// parameter, the imaginary unit, nor a function or constant known to the
// parser. It implements InputError.
type UnknownIdentifierError struct {
	// Col is the position of the identifier.
	Col int
	// Name is the identifier.
	Name string
	// Suggest is the closest known name, or the empty string if nothing is
	// close.
	Suggest string
}

func (err *UnknownIdentifierError) Error() string {
	msg := "unknown identifier " + strconv.Quote(err.Name)
	if err.Suggest != "" {
		msg += "; did you mean " + strconv.Quote(err.Suggest) + "?"
	}
	return errpos(err.Col, msg)
}

func (err *UnknownIdentifierError) Pos() int {
	return err.Col
}

// ArityError is an error indicating a function call with the wrong number of
// arguments. It implements InputError.
type ArityError struct {
	// Col is the position of the function name.
	Col int
	// Name is the function name that was called.
	Name string
	// Want is the number of arguments the function takes.
	Want int
	// Got is the number of arguments the call supplied.
	Got int
}

func (err *ArityError) Error() string {
	return errpos(err.Col, "cannot call "+err.Name+" with "+strconv.Itoa(err.Got)+" arguments (want "+strconv.Itoa(err.Want)+")")
}

func (err *ArityError) Pos() int {
	return err.Col
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// an invalid expression implements InputError.
type InputError interface {
	error
	// Pos returns the 1-based rune column of the token that caused the error.
	Pos() int
}

var (
	_ InputError = (*UnexpectedTokenError)(nil)
	_ InputError = (*UnexpectedEndError)(nil)
	_ InputError = (*UnknownIdentifierError)(nil)
	_ InputError = (*ArityError)(nil)
	_ InputError = (*LexError)(nil)
)
