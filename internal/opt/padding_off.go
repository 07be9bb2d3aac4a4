//go:build (amd64 || 386 || arm || mips || mipsle || wasm) || threadcore_disable_padding

package opt

import "sync/atomic"

// Counter_ is a plain atomic counter.
// Padding is disabled by default for:
// - amd64
// - 32-bit architectures (386, arm, mips, mipsle, wasm)
//
// Use: go build -tags=threadcore_disable_padding to disable it everywhere.
type Counter_ struct {
	atomic.Uint64
}
