//go:build js && wasm

// Command curves-js is the WebAssembly entrypoint for browsers and Node.js.
//
// It exposes a global curves object:
//
//	curves.names()                                          → array of function names
//	curves.generatePoints(expr, tMin, tMax, steps, mapping) → {buffer: Float32Array, errors: [{index, kind, message}]}
//
// generatePoints throws if the expression is malformed or the range is
// invalid. mapping is "param-re-im" or "re-im-param" and may be omitted.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o curves.wasm ./cmd/curves-js/
package main

import (
	"syscall/js"

	"github.com/helixplot/curves"
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	panic(js.Global().Get("Error").New(msg))
}

func generatePoints(_ js.Value, args []js.Value) any {
	if len(args) < 4 {
		jsThrow("curves.generatePoints requires expr, tMin, tMax, and steps")
	}
	m := curves.ParamReIm
	if len(args) > 4 && args[4].Type() == js.TypeString {
		var err error
		if m, err = curves.ParseMapping(args[4].String()); err != nil {
			jsThrow(err.Error())
		}
	}
	res, err := curves.GeneratePoints(args[0].String(), args[1].Float(), args[2].Float(), args[3].Int(), m)
	if err != nil {
		jsThrow(err.Error())
	}

	// Copy through a byte view to hand over one contiguous Float32Array.
	b := res.AppendBinary(nil)
	u8 := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(u8, b)
	f32 := js.Global().Get("Float32Array").New(u8.Get("buffer"), 0, len(res.Buffer))

	errs := make([]any, len(res.Errors))
	for i, e := range res.Errors {
		errs[i] = map[string]any{
			"index":   e.Index,
			"kind":    e.Kind().String(),
			"message": e.Err.Error(),
		}
	}
	return js.ValueOf(map[string]any{
		"buffer": f32,
		"errors": errs,
	})
}

func names(js.Value, []js.Value) any {
	n := curves.Names()
	v := make([]any, len(n))
	for i, s := range n {
		v[i] = s
	}
	return js.ValueOf(v)
}

func main() {
	api := map[string]any{
		"generatePoints": js.FuncOf(generatePoints),
		"names":          js.FuncOf(names),
	}
	js.Global().Set("curves", js.ValueOf(api))

	// The JS event loop owns execution from here.
	select {}
}
