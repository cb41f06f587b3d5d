package curves

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(parsectx) parsectx
}

type (
	funcopt struct {
		name string
		fn   Func
	}
	funcsopt map[string]Func
)

// parsectx holds general data for parsing.
type parsectx struct {
	// funcs is the set of function and constant names known to the parser.
	funcs map[string]Func
	// param is set when the parameter has been seen this parse.
	param bool
	// nodefaults indicates that parse options have set all default functions.
	nodefaults bool
}

func (p *parsectx) checkdefaults() {
	if p.nodefaults {
		return
	}
	n := 0
	for k := range p.funcs {
		if _, ok := globalfuncs[k]; ok {
			n++
		}
	}
	if n == len(globalfuncs) {
		p.nodefaults = true
	}
}

// reserved panics if name cannot be bound to a function.
func reserved(name string) {
	switch name {
	case "i", "t":
		panic("curves: cannot redefine " + name)
	}
}

// ParseFunc sets a function for parsing. To disable parsing a function, pass
// nil for fn. Panics if name is i or t.
func ParseFunc(name string, fn Func) ParseOption {
	reserved(name)
	return &funcopt{name, fn}
}

// ParseConst defines a named constant for parsing. It is shorthand for
// ParseFunc(name, Niladic(val)).
func ParseConst(name string, val Complex) ParseOption {
	return ParseFunc(name, Niladic(val))
}

func (o *funcopt) parseOption(p parsectx) parsectx {
	if p.funcs == nil {
		p.funcs = map[string]Func{}
	}
	p.funcs[o.name] = o.fn
	return p
}

// ParseFuncs sets a group of functions for parsing. To disable parsing any
// function, set it to nil. Panics if any name is i or t.
func ParseFuncs(fns map[string]Func) ParseOption {
	for k := range fns {
		reserved(k)
	}
	return funcsopt(fns)
}

func (o funcsopt) parseOption(p parsectx) parsectx {
	if p.funcs == nil {
		// Always make a copy.
		p.funcs = make(map[string]Func, len(o))
	}
	for k, v := range o {
		p.funcs[k] = v
	}
	p.checkdefaults()
	return p
}

// DisableDefaultFuncs disables all default functions and constants during
// parsing. Their names become unknown identifiers.
func DisableDefaultFuncs() ParseOption {
	o := make(funcsopt, len(globalfuncs))
	for k := range globalfuncs {
		o[k] = nil
	}
	return o
}
