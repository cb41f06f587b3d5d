package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	"github.com/helixplot/curves"
	"github.com/helixplot/curves/internal/protocol"
	"github.com/helixplot/curves/internal/wasihost"
)

func main() {
	var (
		expr, sheet, mapname, format, outname, wasm string
		tmin, tmax                                float64
		steps, workers                            int
		verbose, interactive, echo                bool
		consts                                    = map[string]float64{}
	)
	addconst := func(s string) error {
		name, val, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf(`constant definitions must be "name=value", not %q`, s)
		}
		p, err := curves.CompileString(strings.TrimSpace(val))
		if err != nil {
			return err
		}
		v, err := p.Eval(0)
		if err != nil {
			return err
		}
		if v.Im != 0 {
			return fmt.Errorf("constant %s must be real, not %v", name, v)
		}
		consts[strings.TrimSpace(name)] = v.Re
		return nil
	}
	flag.StringVar(&expr, "expr", "", "expression of t to sample (or give it as an argument)")
	flag.StringVar(&sheet, "sheet", "", "file of definitions to sample, - for stdin")
	flag.Float64Var(&tmin, "tmin", 0, "first parameter value")
	flag.Float64Var(&tmax, "tmax", 2*math.Pi, "last parameter value")
	flag.IntVar(&steps, "steps", 256, "number of samples")
	flag.StringVar(&mapname, "map", "param-re-im", "point layout: param-re-im or re-im-param")
	flag.StringVar(&format, "format", "text", "output format: text, json, or bin")
	flag.StringVar(&outname, "o", "", "output file (default stdout)")
	flag.Func("const", "name=value constant definition (any number of times)", addconst)
	flag.IntVar(&workers, "workers", 1, "number of sampling goroutines")
	flag.StringVar(&wasm, "wasm", "", "sample inside the given curves-wasi module")
	flag.BoolVar(&interactive, "i", false, "evaluate expressions interactively")
	flag.BoolVar(&echo, "echo", false, "print parse trees")
	flag.BoolVar(&verbose, "v", false, "log debug events")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
	if verbose {
		log = log.Level(zerolog.DebugLevel)
	}
	curves.SetLogger(log)

	var opts []curves.ParseOption
	for name, v := range consts {
		if name == "i" || name == "t" {
			log.Fatal().Str("name", name).Msg("cannot redefine a reserved name")
		}
		opts = append(opts, curves.ParseConst(name, curves.Real(v)))
	}

	if interactive {
		os.Exit(repl(log, opts))
	}

	m, err := curves.ParseMapping(mapname)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -map")
	}
	if expr == "" && flag.NArg() > 0 {
		expr = strings.Join(flag.Args(), " ")
	}
	if (expr == "") == (sheet == "") {
		log.Fatal().Msg("give exactly one of an expression or -sheet")
	}
	if sheet != "" {
		b, err := readfile(sheet)
		if err != nil {
			log.Fatal().Err(err).Msg("couldn't read sheet")
		}
		sheet = string(b)
	}
	r := curves.SampleRange{TMin: tmin, TMax: tmax, Steps: steps}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	var res *curves.Result
	if wasm != "" {
		res, err = remote(ctx, log, wasm, &protocol.Request{
			Expr:    expr,
			Sheet:   sheet,
			TMin:    tmin,
			TMax:    tmax,
			Steps:   steps,
			Mapping: m.String(),
			Consts:  consts,
		})
	} else {
		res, err = local(ctx, expr, sheet, r, m, workers, echo, opts)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("couldn't sample")
	}
	for _, e := range res.Errors {
		log.Warn().Int("index", e.Index).Float64("t", e.T).Err(e.Err).Msg("sample failed")
	}

	out := io.Writer(os.Stdout)
	if outname != "" && outname != "-" {
		f, err := os.Create(outname)
		if err != nil {
			log.Fatal().Err(err).Msg("couldn't create output")
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	if err := write(w, format, res); err != nil {
		log.Fatal().Err(err).Msg("couldn't write output")
	}
	if err := w.Flush(); err != nil {
		log.Fatal().Err(err).Msg("couldn't write output")
	}
}

func local(ctx context.Context, expr, sheet string, r curves.SampleRange, m curves.Mapping, workers int, echo bool, opts []curves.ParseOption) (*curves.Result, error) {
	if sheet != "" {
		s, err := curves.ParseSheet(sheet, opts...)
		if err != nil {
			return nil, err
		}
		if echo {
			for _, d := range s.Definitions() {
				fmt.Fprintf(os.Stderr, "%d: %v\n", d.Line, d)
			}
		}
		if workers > 1 {
			return s.SampleConcurrent(ctx, r, m, workers)
		}
		return s.Sample(r, m)
	}
	p, err := curves.CompileString(expr, opts...)
	if err != nil {
		return nil, err
	}
	if echo {
		fmt.Fprintln(os.Stderr, p)
	}
	if workers > 1 {
		return curves.SampleConcurrent(ctx, p, r, m, workers)
	}
	return curves.Sample(p, r, m)
}

func remote(ctx context.Context, log zerolog.Logger, path string, req *protocol.Request) (*curves.Result, error) {
	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	h, err := wasihost.New(ctx, bin, log)
	if err != nil {
		return nil, err
	}
	defer h.Close(ctx)
	resp, err := h.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Result()
}

func write(w io.Writer, format string, res *curves.Result) error {
	switch format {
	case "text":
		for i := 0; i < res.Len(); i++ {
			p := res.Point(i)
			if _, err := fmt.Fprintf(w, "%g\t%g\t%g\n", p.X, p.Y, p.Z); err != nil {
				return err
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "\t")
		return enc.Encode(protocol.FromResult(res))
	case "bin":
		_, err := w.Write(res.AppendBinary(nil))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func readfile(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

const historyFile = ".curves_history"

// repl reads expressions and prints their values at the current t. Lines of
// the form name = expr define constants; :t value sets t.
func repl(log zerolog.Logger, opts []curves.ParseOption) int {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	// The cache reads defs at each compilation, so it is cleared whenever a
	// definition changes.
	defs := map[string]curves.Func{}
	cache := curves.NewPlanCache(64, append(opts[:len(opts):len(opts)], curves.ParseFuncs(defs))...)
	ln.SetWordCompleter(func(line string, pos int) (head string, completions []string, tail string) {
		// pos counts runes.
		rs := []rune(line)
		start := pos
		for start > 0 && isword(rs[start-1]) {
			start--
		}
		word := string(rs[start:pos])
		for _, name := range curves.Names() {
			if strings.HasPrefix(name, word) {
				completions = append(completions, name)
			}
		}
		for name := range defs {
			if strings.HasPrefix(name, word) {
				completions = append(completions, name)
			}
		}
		return string(rs[:start]), completions, string(rs[pos:])
	})

	t := 0.0
	for {
		line, err := ln.Prompt("curves> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return 0
		}
		if err != nil {
			log.Error().Err(err).Msg("couldn't read input")
			return 1
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if cmd, ok := strings.CutPrefix(line, ":"); ok {
			f := strings.Fields(cmd)
			switch {
			case len(f) == 1 && f[0] == "quit":
				return 0
			case len(f) == 2 && f[0] == "t":
				v, err := strconv.ParseFloat(f[1], 64)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				t = v
			default:
				fmt.Println("commands are :t <value> and :quit")
			}
			continue
		}

		name, src, def := strings.Cut(line, "=")
		if !def {
			src = line
		}
		p, err := cache.Plan(strings.TrimSpace(src))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		v, err := p.Eval(t)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if def {
			name = strings.TrimSpace(name)
			if name == "i" || name == "t" {
				fmt.Fprintln(os.Stderr, "cannot redefine", name)
				continue
			}
			defs[name] = curves.Niladic(v)
			cache.Clear()
		}
		fmt.Printf("%v : %v\n", p, v)
	}
}

func isword(r rune) bool {
	return r == '_' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9'
}
