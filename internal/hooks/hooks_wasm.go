package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// WasmHook wraps a single commit-msg/pre-commit plugin module, instantiated
// fresh per call inside its own isolated runtime. The plugin receives the
// commit context as JSON on stdin and answers with a JSON Verdict on stdout.
// Only WASI is instantiated for it; no host functions are exported, so it
// can neither query nor mutate the store.
type WasmHook struct {
	path    string
	timeout time.Duration
}

// NewWasmHook binds a compiled WASM module at path (e.g.
// <store>/hooks/commit-msg.wasm).
func NewWasmHook(path string) *WasmHook {
	return &WasmHook{path: path, timeout: 5 * time.Second}
}

// CommitContext is the read-only payload passed into a sandboxed hook.
type CommitContext struct {
	Stage   string `json:"stage"` // "commit-msg" | "pre-commit"
	Message string `json:"message,omitempty"`
	TaskID  string `json:"taskId,omitempty"`
}

// Verdict is the plugin's response: Allow false blocks the commit and Reason
// is surfaced to the caller.
type Verdict struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason,omitempty"`
}

// Run compiles and instantiates the module in a fresh sandboxed runtime,
// writes the commit context to the module's stdin, and parses its stdout as
// a Verdict. The module has no filesystem or network access beyond what the
// sandbox config grants (none, by default).
func (h *WasmHook) Run(ctx CommitContext) (Verdict, error) {
	wasmBytes, err := os.ReadFile(h.path) // #nosec G304 -- controlled hooks directory
	if err != nil {
		if os.IsNotExist(err) {
			return Verdict{Allow: true}, nil
		}
		return Verdict{}, fmt.Errorf("read wasm hook: %w", err)
	}

	runCtx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	runtime := wazero.NewRuntime(runCtx)
	defer func() { _ = runtime.Close(runCtx) }()

	if _, err := wasi_snapshot_preview1.Instantiate(runCtx, runtime); err != nil {
		return Verdict{}, fmt.Errorf("instantiate wasi: %w", err)
	}

	compiled, err := runtime.CompileModule(runCtx, wasmBytes)
	if err != nil {
		return Verdict{}, fmt.Errorf("compile wasm hook: %w", err)
	}

	payload, err := json.Marshal(ctx)
	if err != nil {
		return Verdict{}, err
	}

	stdoutBuf := &bytes.Buffer{}

	modCfg := wazero.NewModuleConfig().
		WithStdin(bytes.NewReader(payload)).
		WithStdout(stdoutBuf).
		WithName(ctx.Stage)

	mod, err := runtime.InstantiateModule(runCtx, compiled, modCfg)
	if err != nil {
		return Verdict{Allow: false, Reason: fmt.Sprintf("hook rejected the commit: %v", err)}, nil
	}
	defer func() { _ = mod.Close(runCtx) }()

	var v Verdict
	if err := json.Unmarshal(stdoutBuf.Bytes(), &v); err != nil {
		// A hook that produces no parseable verdict fails open with a warning
		// rather than blocking every commit on a malformed plugin.
		return Verdict{Allow: true, Reason: "hook output was not a valid verdict, allowing by default"}, nil
	}
	return v, nil
}
