// Package protocol defines the JSON messages exchanged with the sandboxed
// curve sampler and the handler that answers them.
//
// A request names either an expression or a sheet together with the range to
// sample. The response carries the packed buffer as base64 of little-endian
// float32s, since JSON numbers cannot hold the NaNs and infinities a curve
// may contain.
package protocol

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/helixplot/curves"
)

// Request is a request to sample a curve.
type Request struct {
	// Expr is an expression of t. Exactly one of Expr and Sheet must be set.
	Expr string `json:"expr,omitempty"`
	// Sheet is a sheet of definitions.
	Sheet string `json:"sheet,omitempty"`

	TMin  float64 `json:"tMin"`
	TMax  float64 `json:"tMax"`
	Steps int     `json:"steps"`
	// Mapping is a mapping name as accepted by curves.ParseMapping. The
	// default is param-re-im.
	Mapping string `json:"mapping,omitempty"`
	// Consts are extra named real constants.
	Consts map[string]float64 `json:"consts,omitempty"`
}

// Response is the answer to a Request.
type Response struct {
	// Buffer is the packed points, 3*Steps little-endian float32s.
	Buffer []byte `json:"buffer,omitempty"`
	// Errors lists failed samples in index order.
	Errors []SampleError `json:"errors,omitempty"`
	// Error describes a request that could not be sampled at all. When it is
	// set, Buffer and Errors are empty.
	Error string `json:"error,omitempty"`
	// Pos is the column of an input error in the expression, if any.
	Pos int `json:"pos,omitempty"`
}

// SampleError is a failed sample.
type SampleError struct {
	Index   int                  `json:"index"`
	T       float64              `json:"t"`
	Kind    curves.EvalErrorKind `json:"kind"`
	Op      string               `json:"op,omitempty"`
	Message string               `json:"message"`
}

// RequestError is a request-level failure reported by a Response.
type RequestError struct {
	// Message is the text of the original error.
	Message string
	// Col is the column of an input error, or 0.
	Col int
}

func (err *RequestError) Error() string {
	return err.Message
}

func (err *RequestError) Pos() int {
	return err.Col
}

var errNoInput = errors.New("request needs exactly one of expr and sheet")

// Handle samples the curve a request describes.
func Handle(req *Request) *Response {
	res, err := sample(req)
	if err != nil {
		return Failure(err)
	}
	return FromResult(res)
}

func sample(req *Request) (*curves.Result, error) {
	if (req.Expr == "") == (req.Sheet == "") {
		return nil, errNoInput
	}
	m := curves.ParamReIm
	if req.Mapping != "" {
		var err error
		if m, err = curves.ParseMapping(req.Mapping); err != nil {
			return nil, err
		}
	}
	var opts []curves.ParseOption
	for name, v := range req.Consts {
		if name == "i" || name == "t" {
			return nil, errors.New("cannot redefine " + name)
		}
		opts = append(opts, curves.ParseConst(name, curves.Real(v)))
	}
	r := curves.SampleRange{TMin: req.TMin, TMax: req.TMax, Steps: req.Steps}
	if err := r.Check(); err != nil {
		return nil, err
	}
	if req.Sheet != "" {
		s, err := curves.ParseSheet(req.Sheet, opts...)
		if err != nil {
			return nil, err
		}
		return s.Sample(r, m)
	}
	p, err := curves.CompileString(req.Expr, opts...)
	if err != nil {
		return nil, err
	}
	return curves.Sample(p, r, m)
}

// FromResult converts a sampling result to a response.
func FromResult(res *curves.Result) *Response {
	resp := &Response{Buffer: res.AppendBinary(nil)}
	for _, e := range res.Errors {
		se := SampleError{Index: e.Index, T: e.T, Kind: e.Kind(), Message: e.Err.Error()}
		var ee *curves.EvalError
		if errors.As(e.Err, &ee) {
			se.Op = ee.Op
		}
		resp.Errors = append(resp.Errors, se)
	}
	return resp
}

// Failure converts a request-level error to a response.
func Failure(err error) *Response {
	resp := &Response{Error: err.Error()}
	var ie curves.InputError
	if errors.As(err, &ie) {
		resp.Pos = ie.Pos()
	}
	return resp
}

// Result converts a response back to a sampling result. If the response
// reports a request-level failure, the error is a *RequestError.
func (resp *Response) Result() (*curves.Result, error) {
	if resp.Error != "" {
		return nil, &RequestError{Message: resp.Error, Col: resp.Pos}
	}
	buf, err := curves.DecodeFloats(resp.Buffer)
	if err != nil {
		return nil, err
	}
	res := &curves.Result{Buffer: buf}
	for _, e := range resp.Errors {
		res.Errors = append(res.Errors, curves.SampleError{
			Index: e.Index,
			T:     e.T,
			Err:   &curves.EvalError{Kind: e.Kind, Op: e.Op},
		})
	}
	return res, nil
}

// Serve reads one request from r, writes its response to w, and returns the
// process exit code: 0 on success, 1 for requests that fail.
func Serve(r io.Reader, w io.Writer) int {
	var req Request
	var resp *Response
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		resp = &Response{Error: "invalid request JSON: " + err.Error()}
	} else {
		resp = Handle(&req)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return 1
	}
	if resp.Error != "" {
		return 1
	}
	return 0
}
