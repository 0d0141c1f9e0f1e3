package components

import (
	"context"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero/api"
)

// packBridge calls a pack module's exports over the shared-memory JSON
// convention: the host writes input into pack-allocated memory, the
// export returns (output_ptr << 32) | output_len, and the host reads
// and frees the output.
type packBridge struct {
	// module is the WASM module instance.
	module api.Module

	// memory provides access to WASM linear memory.
	memory api.Memory

	// malloc is the memory allocation function exported by the pack.
	malloc api.Function

	// free is the memory deallocation function exported by the pack.
	free api.Function

	// packComponents is the component declaration export.
	packComponents api.Function

	// timeout is the default timeout for pack calls.
	timeout time.Duration
}

// newPackBridge resolves the exports every pack must provide.
func newPackBridge(module api.Module, timeout time.Duration) (*packBridge, error) {
	bridge := &packBridge{
		module:  module,
		timeout: timeout,
	}

	bridge.memory = module.Memory()
	if bridge.memory == nil {
		return nil, fmt.Errorf("WASM module does not export memory")
	}

	bridge.malloc = module.ExportedFunction("malloc")
	if bridge.malloc == nil {
		return nil, fmt.Errorf("WASM module does not export malloc function")
	}

	bridge.free = module.ExportedFunction("free")
	if bridge.free == nil {
		return nil, fmt.Errorf("WASM module does not export free function")
	}

	bridge.packComponents = module.ExportedFunction("pack_components")
	if bridge.packComponents == nil {
		return nil, fmt.Errorf("WASM module does not export pack_components function")
	}

	return bridge, nil
}

// call invokes a pack export with JSON input and output.
func (b *packBridge) call(ctx context.Context, fn api.Function, input []byte) ([]byte, error) {
	var inputPtr, inputLen uint32
	if len(input) > 0 {
		ptr, err := b.allocate(ctx, uint32(len(input)))
		if err != nil {
			return nil, fmt.Errorf("failed to allocate WASM memory: %w", err)
		}
		defer b.deallocate(ctx, ptr)

		inputPtr = ptr
		inputLen = uint32(len(input))

		if !b.memory.Write(inputPtr, input) {
			return nil, fmt.Errorf("failed to write input to WASM memory")
		}
	}

	// Export signature: fn(input_ptr: u32, input_len: u32) -> u64,
	// the return packed as (output_ptr << 32) | output_len.
	results, err := fn.Call(ctx, uint64(inputPtr), uint64(inputLen))
	if err != nil {
		return nil, fmt.Errorf("WASM function call failed: %w", err)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("WASM function returned no results")
	}

	packed := results[0]
	outputPtr := uint32(packed >> 32)
	outputLen := uint32(packed & 0xFFFFFFFF)

	if outputLen == 0 {
		return []byte("[]"), nil
	}

	output, ok := b.memory.Read(outputPtr, outputLen)
	if !ok {
		return nil, fmt.Errorf("failed to read output from WASM memory")
	}

	// The output buffer was allocated by the pack; hand it back. The
	// output was already copied, so a failed free is not fatal.
	_ = b.deallocate(ctx, outputPtr)

	return output, nil
}

// allocate allocates memory in the pack and returns the pointer.
func (b *packBridge) allocate(ctx context.Context, size uint32) (uint32, error) {
	results, err := b.malloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("malloc failed: %w", err)
	}

	if len(results) == 0 {
		return 0, fmt.Errorf("malloc returned no results")
	}

	ptr := uint32(results[0])
	if ptr == 0 {
		return 0, fmt.Errorf("malloc returned null pointer")
	}

	return ptr, nil
}

// deallocate frees memory in the pack.
func (b *packBridge) deallocate(ctx context.Context, ptr uint32) error {
	if _, err := b.free.Call(ctx, uint64(ptr)); err != nil {
		return fmt.Errorf("free failed: %w", err)
	}
	return nil
}
