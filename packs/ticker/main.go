// Package main implements the ticker component pack. It compiles to
// WASM with tinygo and contributes its component types through the
// pack_components export; the manifest declares the same types
// statically so the pack also works without a built module.
package main

import (
	"encoding/json"
	"unsafe"
)

// keySpec mirrors the key declaration shape the host expects.
type keySpec struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Stage   string      `json:"stage,omitempty"`
	Default interface{} `json:"default,omitempty"`
	Help    string      `json:"help,omitempty"`
}

// componentType mirrors the component type shape the host expects.
type componentType struct {
	Name        string    `json:"name"`
	Constructor string    `json:"constructor"`
	Import      string    `json:"import"`
	Arity       int       `json:"arity"`
	Keys        []keySpec `json:"keys,omitempty"`
}

// packLog writes a line to the host's logger. Levels: 0 debug, 1 info,
// 2 warn, anything else error.
//
//go:wasmimport env pack_log
func packLog(level uint32, ptr uint32, size uint32)

func logInfo(msg string) {
	data := []byte(msg)
	if len(data) == 0 {
		return
	}
	packLog(1, uint32(uintptr(unsafe.Pointer(&data[0]))), uint32(len(data)))
}

// alive pins host-allocated buffers so the GC does not reclaim them
// while the host still holds the pointer.
var alive = map[uintptr][]byte{}

//export malloc
func malloc(size uint32) uint32 {
	buf := make([]byte, size)
	ptr := uintptr(unsafe.Pointer(&buf[0]))
	alive[ptr] = buf
	return uint32(ptr)
}

//export free
func free(ptr uint32) {
	delete(alive, uintptr(ptr))
}

// pack_components returns the pack's component types as JSON. The
// result is packed as (pointer << 32) | length.
//
//export pack_components
func packComponents(ptr uint32, size uint32) uint64 {
	types := []componentType{
		{
			Name:        "ticker",
			Constructor: "components.NewTicker",
			Import:      "github.com/yomimono/functoria/pkg/runtime/components",
			Arity:       1,
			Keys: []keySpec{
				{Name: "tick_interval", Type: "int", Stage: "run", Default: 10, Help: "seconds between heartbeat lines"},
			},
		},
	}

	data, err := json.Marshal(types)
	if err != nil {
		return 0
	}

	out := malloc(uint32(len(data)))
	copy(alive[uintptr(out)], data)
	logInfo("ticker pack contributed 1 component type")
	return uint64(out)<<32 | uint64(len(data))
}

// main is required for the wasi target; the host only calls exports.
func main() {}
