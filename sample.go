package curves

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SampleRange is a uniform grid of parameter values. Sample i is at
// TMin + i*(TMax-TMin)/(Steps-1); the first sample is exactly TMin and the
// last is exactly TMax.
type SampleRange struct {
	TMin, TMax float64
	// Steps is the number of samples. It must be at least 2.
	Steps int
}

// Check returns an error if the range cannot be sampled.
func (r SampleRange) Check() error {
	if r.Steps < 2 {
		return &StepCountError{Steps: r.Steps}
	}
	if math.IsNaN(r.TMin) || math.IsInf(r.TMin, 0) || math.IsNaN(r.TMax) || math.IsInf(r.TMax, 0) {
		return &BoundsError{TMin: r.TMin, TMax: r.TMax}
	}
	return nil
}

// At returns the parameter value of sample i.
func (r SampleRange) At(i int) float64 {
	switch i {
	case 0:
		return r.TMin
	case r.Steps - 1:
		return r.TMax
	}
	span := r.TMax - r.TMin
	if math.IsInf(span, 0) {
		// The bounds are finite but too far apart to subtract.
		f := float64(i) / float64(r.Steps-1)
		return r.TMin*(1-f) + r.TMax*f
	}
	return r.TMin + float64(i)*(span/float64(r.Steps-1))
}

// Mapping selects how a complex result and its parameter value are laid out
// as a point.
type Mapping int8

const (
	// ParamReIm maps f(t) to (t, Re f, Im f).
	ParamReIm Mapping = iota
	// ReImParam maps f(t) to (Re f, Im f, t).
	ReImParam
)

var mappingNames = [...]string{
	ParamReIm: "param-re-im",
	ReImParam: "re-im-param",
}

func (m Mapping) String() string {
	if m < 0 || int(m) >= len(mappingNames) {
		return "Mapping(" + strconv.Itoa(int(m)) + ")"
	}
	return mappingNames[m]
}

// ParseMapping parses the name of a mapping. It accepts the names returned by
// Mapping.String and the Go constant names, ignoring case.
func ParseMapping(s string) (Mapping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "param-re-im", "paramreim", "t-re-im":
		return ParamReIm, nil
	case "re-im-param", "reimparam", "re-im-t":
		return ReImParam, nil
	}
	return 0, errors.New("curves: unknown mapping " + strconv.Quote(s))
}

// Check returns a *MappingError if m is not one of the defined mappings.
func (m Mapping) Check() error {
	if m < 0 || int(m) >= len(mappingNames) {
		return &MappingError{Mapping: m}
	}
	return nil
}

// Project lays out the value v at t as a point. Panics if m is invalid.
func (m Mapping) Project(t float64, v Complex) Point {
	switch m {
	case ParamReIm:
		return Point{t, v.Re, v.Im}
	case ReImParam:
		return Point{v.Re, v.Im, t}
	default:
		panic("curves: invalid mapping " + m.String())
	}
}

// Result is the output of a sampling run.
type Result struct {
	// Buffer holds 3 floats per sample, x0, y0, z0, x1, y1, z1, ....
	Buffer []float32
	// Errors lists the samples whose evaluation failed, in index order. Each
	// failed sample is the point (0, 0, 0) in Buffer.
	Errors []SampleError
}

// Len returns the number of samples in the result.
func (r *Result) Len() int {
	return len(r.Buffer) / 3
}

// Point returns sample i.
func (r *Result) Point(i int) Point {
	return Point{float64(r.Buffer[3*i]), float64(r.Buffer[3*i+1]), float64(r.Buffer[3*i+2])}
}

// SampleError records a failed sample.
type SampleError struct {
	// Index is the sample index.
	Index int
	// T is the parameter value of the sample.
	T float64
	// Err is the cause. It is usually an *EvalError, but custom functions may
	// return other errors.
	Err error
}

func (err SampleError) Error() string {
	return "sample " + strconv.Itoa(err.Index) + " (t=" + strconv.FormatFloat(err.T, 'g', -1, 64) + "): " + err.Err.Error()
}

func (err SampleError) Unwrap() error {
	return err.Err
}

// Kind returns the kind of the evaluation error. Errors that are not
// *EvalError are reported as Domain.
func (err SampleError) Kind() EvalErrorKind {
	var ee *EvalError
	if errors.As(err.Err, &ee) {
		return ee.Kind
	}
	return Domain
}

// StepCountError is an error indicating a sample range with fewer than two
// samples.
type StepCountError struct {
	Steps int
}

func (err *StepCountError) Error() string {
	return "invalid step count " + strconv.Itoa(err.Steps) + ": need at least 2"
}

// BoundsError is an error indicating a sample range with a NaN or infinite
// bound.
type BoundsError struct {
	TMin, TMax float64
}

func (err *BoundsError) Error() string {
	return "invalid parameter range [" + strconv.FormatFloat(err.TMin, 'g', -1, 64) + ", " + strconv.FormatFloat(err.TMax, 'g', -1, 64) + "]"
}

// MappingError is an error indicating a Mapping value that is not one of the
// defined mappings.
type MappingError struct {
	Mapping Mapping
}

func (err *MappingError) Error() string {
	return "invalid mapping " + err.Mapping.String()
}

// check validates a sampling request before any evaluation.
func check(r SampleRange, m Mapping) error {
	if err := r.Check(); err != nil {
		return err
	}
	return m.Check()
}

// pointFunc computes the point for one parameter value.
type pointFunc func(t float64) (Point, error)

func mapped(p Evaluator, m Mapping) pointFunc {
	return func(t float64) (Point, error) {
		v, err := p.Eval(t)
		if err != nil {
			return Point{}, err
		}
		return m.Project(t, v), nil
	}
}

// Sample evaluates p at every value in r and packs the points laid out by m.
// Samples that fail to evaluate become (0, 0, 0) and are listed in the
// result's Errors; only an invalid range makes Sample return an error.
func Sample(p Evaluator, r SampleRange, m Mapping) (*Result, error) {
	return sample(mapped(p, m), r, m)
}

func sample(f pointFunc, r SampleRange, m Mapping) (*Result, error) {
	if err := check(r, m); err != nil {
		return nil, err
	}
	start := time.Now()
	res := &Result{Buffer: make([]float32, 3*r.Steps)}
	res.Errors = sampleInto(f, r, res.Buffer, 0, r.Steps, nil)
	lg := logger()
	lg.Debug().
		Int("steps", r.Steps).
		Int("failed", len(res.Errors)).
		Dur("took", time.Since(start)).
		Msg("sampled")
	return res, nil
}

// sampleInto fills samples [lo, hi) of buf and appends failures to errs.
func sampleInto(f pointFunc, r SampleRange, buf []float32, lo, hi int, errs []SampleError) []SampleError {
	for i := lo; i < hi; i++ {
		t := r.At(i)
		pt, err := f(t)
		if err != nil {
			errs = append(errs, SampleError{Index: i, T: t, Err: err})
			pt = Point{}
		}
		put(buf, i, pt)
	}
	return errs
}

// block is the number of samples a worker computes between checks for
// cancellation.
const block = 4096

// SampleConcurrent is like Sample but divides the range among workers
// goroutines. The result is identical to Sample's. If ctx is cancelled
// before all samples are computed, the result is nil and the error is the
// context's error. A workers value less than 1 means 1.
func SampleConcurrent(ctx context.Context, p Evaluator, r SampleRange, m Mapping, workers int) (*Result, error) {
	return sampleConcurrent(ctx, mapped(p, m), r, m, workers)
}

func sampleConcurrent(ctx context.Context, f pointFunc, r SampleRange, m Mapping, workers int) (*Result, error) {
	if err := check(r, m); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	start := time.Now()
	res := &Result{Buffer: make([]float32, 3*r.Steps)}
	per := (r.Steps + workers - 1) / workers
	errs := make([][]SampleError, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		w := w
		lo, hi := w*per, min((w+1)*per, r.Steps)
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for lo < hi {
				if ctx.Err() != nil {
					return
				}
				end := min(lo+block, hi)
				errs[w] = sampleInto(f, r, res.Buffer, lo, end, errs[w])
				lo = end
			}
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, e := range errs {
		res.Errors = append(res.Errors, e...)
	}
	lg := logger()
	lg.Debug().
		Int("steps", r.Steps).
		Int("failed", len(res.Errors)).
		Int("workers", workers).
		Dur("took", time.Since(start)).
		Msg("sampled")
	return res, nil
}

// GeneratePoints parses expr and samples it over steps uniformly spaced
// values from tMin to tMax. Invalid ranges, mappings, and expressions are
// reported as errors before any evaluation; failures of individual samples
// are reported in the result.
func GeneratePoints(expr string, tMin, tMax float64, steps int, m Mapping) (*Result, error) {
	r := SampleRange{TMin: tMin, TMax: tMax, Steps: steps}
	if err := check(r, m); err != nil {
		return nil, err
	}
	p, err := CompileString(expr)
	if err != nil {
		return nil, err
	}
	return Sample(p, r, m)
}
