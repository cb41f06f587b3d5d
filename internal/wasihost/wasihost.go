// Package wasihost runs the sampler compiled for wasip1 inside a wazero
// runtime, so that untrusted expressions are sampled in a sandbox.
package wasihost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/helixplot/curves"
	"github.com/helixplot/curves/internal/protocol"
)

// Host holds a compiled sampler module. Each request runs in a fresh
// instance. A Host is safe for concurrent use.
type Host struct {
	rt  wazero.Runtime
	mod wazero.CompiledModule
	log zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// New compiles the wasip1 module in bin.
func New(ctx context.Context, bin []byte, log zerolog.Logger) (*Host, error) {
	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("couldn't instantiate WASI: %w", err)
	}
	mod, err := rt.CompileModule(ctx, bin)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("couldn't compile module: %w", err)
	}
	log.Debug().Int("bytes", len(bin)).Msg("compiled sampler module")
	return &Host{rt: rt, mod: mod, log: log}, nil
}

// Do sends one request to a new instance of the module and returns its
// response.
func (h *Host) Do(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return nil, errors.New("wasihost: host is closed")
	}
	in, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var stdout, stderr bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs("curves-wasi").
		WithStdin(bytes.NewReader(in)).
		WithStdout(&stdout).
		WithStderr(&stderr)
	inst, err := h.rt.InstantiateModule(ctx, h.mod, cfg)
	if inst != nil {
		defer inst.Close(ctx)
	}
	code := uint32(0)
	if err != nil {
		var exit *sys.ExitError
		if !errors.As(err, &exit) {
			return nil, fmt.Errorf("couldn't run module: %w", err)
		}
		code = exit.ExitCode()
	}
	h.log.Debug().
		Uint32("exit", code).
		Int("stdout", stdout.Len()).
		Str("stderr", stderr.String()).
		Msg("module finished")
	var resp protocol.Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("couldn't decode module response (exit code %d): %w", code, err)
	}
	return &resp, nil
}

// GeneratePoints samples an expression in the sandbox.
func (h *Host) GeneratePoints(ctx context.Context, expr string, tMin, tMax float64, steps int, m curves.Mapping) (*curves.Result, error) {
	resp, err := h.Do(ctx, &protocol.Request{
		Expr:    expr,
		TMin:    tMin,
		TMax:    tMax,
		Steps:   steps,
		Mapping: m.String(),
	})
	if err != nil {
		return nil, err
	}
	return resp.Result()
}

// Close releases the runtime.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.rt.Close(ctx)
}
