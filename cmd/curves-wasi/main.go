//go:build wasip1

// Command curves-wasi samples one curve per run under the WebAssembly System
// Interface.
//
// It reads a single JSON request on stdin and writes a single JSON response
// on stdout:
//
//	stdin:  {"expr": "exp(i*t)", "tMin": 0, "tMax": 6.28, "steps": 100, "mapping": "param-re-im"}
//	stdout: {"buffer": "<base64 little-endian float32s>", "errors": [...]}
//	        {"error": "<message>", "pos": 3}    on failure (exit code 1)
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o curves.wasm ./cmd/curves-wasi/
package main

import (
	"os"

	"github.com/helixplot/curves/internal/protocol"
)

func main() {
	os.Exit(protocol.Serve(os.Stdin, os.Stdout))
}
