package curves

import (
	"bytes"
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func mustCompile(t testing.TB, src string) *Plan {
	t.Helper()
	p, err := CompileString(src)
	if err != nil {
		t.Fatalf("%q failed to compile: %v", src, err)
	}
	return p
}

func TestSampleEndpoints(t *testing.T) {
	res, err := Sample(mustCompile(t, "t"), SampleRange{TMin: 0, TMax: 1, Steps: 2}, ParamReIm)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{0, 0, 0, 1, 1, 0}
	if !reflect.DeepEqual(res.Buffer, want) {
		t.Errorf("want %v, got %v", want, res.Buffer)
	}
	if len(res.Errors) != 0 {
		t.Errorf("unexpected errors %v", res.Errors)
	}
}

func TestSampleRangeAt(t *testing.T) {
	cases := []struct {
		name string
		r    SampleRange
	}{
		{"unit", SampleRange{0, 1, 11}},
		{"reverse", SampleRange{1, -1, 7}},
		{"inexact", SampleRange{0.1, 0.7, 3}},
		{"tau", SampleRange{0, 2 * math.Pi, 1000}},
		{"empty", SampleRange{3, 3, 4}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.r.Check(); err != nil {
				t.Fatal(err)
			}
			if got := c.r.At(0); got != c.r.TMin {
				t.Errorf("first sample at %g, want %g", got, c.r.TMin)
			}
			if got := c.r.At(c.r.Steps - 1); got != c.r.TMax {
				t.Errorf("last sample at %g, want %g", got, c.r.TMax)
			}
			step := (c.r.TMax - c.r.TMin) / float64(c.r.Steps-1)
			for i := 1; i < c.r.Steps-1; i++ {
				if got, want := c.r.At(i), c.r.TMin+float64(i)*step; got != want {
					t.Errorf("sample %d at %g, want %g", i, got, want)
				}
			}
		})
	}
}

func TestSampleRangeWide(t *testing.T) {
	r := SampleRange{TMin: -math.MaxFloat64, TMax: math.MaxFloat64, Steps: 5}
	if err := r.Check(); err != nil {
		t.Fatal(err)
	}
	prev := math.Inf(-1)
	for i := 0; i < r.Steps; i++ {
		x := r.At(i)
		if math.IsInf(x, 0) || math.IsNaN(x) || x <= prev {
			t.Errorf("sample %d at %g after %g", i, x, prev)
		}
		prev = x
	}
	if mid := r.At(2); mid != 0 {
		t.Errorf("middle sample at %g, want 0", mid)
	}
	res, err := Sample(mustCompile(t, "t/2"), r, ParamReIm)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) != 0 {
		t.Errorf("wide range gave errors %v", res.Errors)
	}
}

func TestSampleInvalidMapping(t *testing.T) {
	p := mustCompile(t, "t")
	r := SampleRange{TMin: 0, TMax: 1, Steps: 2}
	s, err := ParseSheet("x = t\ny = t")
	if err != nil {
		t.Fatal(err)
	}
	runs := map[string]func(Mapping) (*Result, error){
		"sample": func(m Mapping) (*Result, error) {
			return Sample(p, r, m)
		},
		"concurrent": func(m Mapping) (*Result, error) {
			return SampleConcurrent(context.Background(), p, r, m, 4)
		},
		"generate": func(m Mapping) (*Result, error) {
			return GeneratePoints("t", 0, 1, 2, m)
		},
		"cache": func(m Mapping) (*Result, error) {
			return NewPlanCache(1).GeneratePoints("t", 0, 1, 2, m)
		},
		"sheet": func(m Mapping) (*Result, error) {
			return s.Sample(r, m)
		},
		"sheet-concurrent": func(m Mapping) (*Result, error) {
			return s.SampleConcurrent(context.Background(), r, m, 4)
		},
	}
	for name, run := range runs {
		for _, m := range []Mapping{-1, 2, 7} {
			res, err := run(m)
			me, ok := err.(*MappingError)
			if !ok {
				t.Errorf("%s with %v: want *MappingError, got %#v", name, m, err)
				continue
			}
			if me.Mapping != m || res != nil {
				t.Errorf("%s with %v: got %v and result %v", name, m, me, res)
			}
		}
	}
	if err := ReImParam.Check(); err != nil {
		t.Errorf("valid mapping rejected: %v", err)
	}
}

func TestSampleRangeCheck(t *testing.T) {
	for _, steps := range []int{1, 0, -1} {
		_, err := Sample(mustCompile(t, "t"), SampleRange{TMin: 0, TMax: 1, Steps: steps}, ParamReIm)
		var se *StepCountError
		if !errors.As(err, &se) {
			t.Errorf("%d steps gave %#v", steps, err)
			continue
		}
		if se.Steps != steps {
			t.Errorf("%d steps reported as %d", steps, se.Steps)
		}
		if !strings.Contains(err.Error(), "at least 2") {
			t.Errorf("message %q doesn't state the minimum", err.Error())
		}
	}
	for _, r := range []SampleRange{
		{math.NaN(), 1, 2},
		{0, math.Inf(1), 2},
		{math.Inf(-1), math.Inf(1), 2},
	} {
		_, err := Sample(mustCompile(t, "t"), r, ParamReIm)
		var be *BoundsError
		if !errors.As(err, &be) {
			t.Errorf("%v gave %#v", r, err)
		}
	}
}

func TestSampleMappings(t *testing.T) {
	p := mustCompile(t, "exp(i*t)")
	r := SampleRange{TMin: 0, TMax: math.Pi, Steps: 3}
	a, err := Sample(p, r, ParamReIm)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Sample(p, r, ReImParam)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < r.Steps; i++ {
		pa, pb := a.Point(i), b.Point(i)
		if pa.X != pb.Z || pa.Y != pb.X || pa.Z != pb.Y {
			t.Errorf("sample %d: %v and %v aren't the same value", i, pa, pb)
		}
		if pa.X != float64(float32(r.At(i))) {
			t.Errorf("sample %d: x is %g, want t = %g", i, pa.X, r.At(i))
		}
	}
	if p := a.Point(1); math.Abs(p.Y) > 1e-7 || math.Abs(p.Z-1) > 1e-7 {
		t.Errorf("exp(i*pi/2) sampled as %v", p)
	}
}

func TestSamplePartialFailure(t *testing.T) {
	const steps = 9
	res, err := Sample(mustCompile(t, "1/(t-t)"), SampleRange{TMin: -4, TMax: 4, Steps: steps}, ReImParam)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Buffer) != 3*steps {
		t.Fatalf("buffer has %d floats, want %d", len(res.Buffer), 3*steps)
	}
	for _, v := range res.Buffer {
		if v != 0 {
			t.Fatalf("failed samples aren't zero: %v", res.Buffer)
		}
	}
	if len(res.Errors) != steps {
		t.Fatalf("want %d errors, got %d", steps, len(res.Errors))
	}
	for i, e := range res.Errors {
		if e.Index != i || e.Kind() != DivisionByZero {
			t.Errorf("error %d is %v of kind %v", i, e, e.Kind())
		}
		if e.T != float64(i-4) {
			t.Errorf("error %d at t=%g", i, e.T)
		}
		var ee *EvalError
		if !errors.As(e, &ee) {
			t.Errorf("%v doesn't unwrap to *EvalError", e)
		}
	}

	// Only some samples fail.
	res, err = Sample(mustCompile(t, "1/t + i"), SampleRange{TMin: -1, TMax: 1, Steps: 5}, ParamReIm)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) != 1 || res.Errors[0].Index != 2 {
		t.Fatalf("want one error at index 2, got %v", res.Errors)
	}
	want := []Point{{-1, -1, 1}, {-0.5, -2, 1}, {0, 0, 0}, {0.5, 2, 1}, {1, 1, 1}}
	if got := Unpack(res.Buffer); !reflect.DeepEqual(got, want) {
		t.Errorf("want %v, got %v", want, got)
	}
}

type custom struct{}

func (custom) Call(args []Complex) (Complex, error) {
	if args[0].Re > 0 {
		return Complex{}, errors.New("positive")
	}
	return args[0], nil
}

func (custom) Arity() int {
	return 1
}

func TestSampleCustomError(t *testing.T) {
	p, err := CompileString("custom(t)", ParseFunc("custom", custom{}))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Sample(p, SampleRange{TMin: -1, TMax: 1, Steps: 3}, ParamReIm)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("want 1 error, got %v", res.Errors)
	}
	e := res.Errors[0]
	if e.Index != 2 || e.Kind() != Domain || e.Err.Error() != "positive" {
		t.Errorf("wrong error %v of kind %v", e, e.Kind())
	}
}

func TestSampleConcurrent(t *testing.T) {
	p := mustCompile(t, "polar(1 + t/10, 4*t) / (t - 3)")
	r := SampleRange{TMin: -8, TMax: 8, Steps: 16385}
	want, err := Sample(p, r, ReImParam)
	if err != nil {
		t.Fatal(err)
	}
	if len(want.Errors) != 1 {
		t.Fatalf("want 1 failed sample, got %d", len(want.Errors))
	}
	for _, workers := range []int{-1, 0, 1, 2, 3, 7, 64, 20000} {
		got, err := SampleConcurrent(context.Background(), p, r, ReImParam, workers)
		if err != nil {
			t.Fatalf("%d workers: %v", workers, err)
		}
		if !reflect.DeepEqual(got.Buffer, want.Buffer) {
			t.Errorf("%d workers: buffers differ", workers)
		}
		if len(got.Errors) != len(want.Errors) || got.Errors[0].Index != want.Errors[0].Index {
			t.Errorf("%d workers: want errors %v, got %v", workers, want.Errors, got.Errors)
		}
	}
}

func TestSampleConcurrentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := SampleConcurrent(ctx, mustCompile(t, "t"), SampleRange{TMin: 0, TMax: 1, Steps: 100}, ParamReIm, 4)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
	if res != nil {
		t.Errorf("cancelled run gave result %v", res)
	}
	// Range errors win over cancellation.
	_, err = SampleConcurrent(ctx, mustCompile(t, "t"), SampleRange{TMin: 0, TMax: 1, Steps: 1}, ParamReIm, 4)
	if _, ok := err.(*StepCountError); !ok {
		t.Errorf("want *StepCountError, got %#v", err)
	}
}

func TestParseMapping(t *testing.T) {
	cases := []struct {
		in   string
		want Mapping
	}{
		{"param-re-im", ParamReIm},
		{"ParamReIm", ParamReIm},
		{" re-im-param ", ReImParam},
		{"REIMPARAM", ReImParam},
	}
	for _, c := range cases {
		m, err := ParseMapping(c.in)
		if err != nil || m != c.want {
			t.Errorf("%q: want %v, got %v, %v", c.in, c.want, m, err)
		}
		if back, err := ParseMapping(m.String()); err != nil || back != m {
			t.Errorf("%v didn't round-trip: %v, %v", m, back, err)
		}
	}
	if _, err := ParseMapping("xyz"); err == nil {
		t.Error("no error for unknown mapping")
	}
	if s := Mapping(5).String(); s != "Mapping(5)" {
		t.Errorf("invalid mapping formatted as %q", s)
	}
}

func TestGeneratePointsErrors(t *testing.T) {
	// Range errors are reported before parse errors.
	_, err := GeneratePoints("sin(", 0, 1, 1, ParamReIm)
	if _, ok := err.(*StepCountError); !ok {
		t.Errorf("want *StepCountError, got %#v", err)
	}
	_, err = GeneratePoints("sin(t, t)", 0, 1, 10, ParamReIm)
	if ae, ok := err.(*ArityError); !ok || ae.Name != "sin" || ae.Want != 1 || ae.Got != 2 {
		t.Errorf("want arity error for sin, got %#v", err)
	}
	_, err = GeneratePoints("foo(t)", 0, 1, 10, ParamReIm)
	if ue, ok := err.(*UnknownIdentifierError); !ok || ue.Name != "foo" {
		t.Errorf("want unknown identifier foo, got %#v", err)
	}
	_, err = GeneratePoints("t $ 2", 0, 1, 10, ParamReIm)
	if _, ok := err.(*LexError); !ok {
		t.Errorf("want *LexError, got %#v", err)
	}
}

func TestSampleLogs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	defer SetLogger(zerolog.Nop())
	if _, err := GeneratePoints("1/t", -1, 1, 3, ParamReIm); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"message":"compiled plan"`, `"message":"sampled"`, `"steps":3`, `"failed":1`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %s doesn't contain %s", out, want)
		}
	}
}

func BenchmarkSample(b *testing.B) {
	p := mustCompile(b, "polar(1 + t/10, 4*t)")
	r := SampleRange{TMin: 0, TMax: 100, Steps: 1 << 14}
	b.Run("serial", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			Sample(p, r, ParamReIm)
		}
	})
	b.Run("concurrent", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			SampleConcurrent(context.Background(), p, r, ParamReIm, 4)
		}
	})
}
