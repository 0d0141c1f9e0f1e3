// Package components provides the component type catalog and the WASM
// component packs that extend it.
//
// A Catalog maps type names (console, logger, http_server, kv_store,
// plus anything packs contribute) to the constructor, import path, and
// key declarations the composition needs. Packs are directories with a
// manifest.yaml; a Registry scans a pack directory, verifies each
// pack's WASM checksum, and merges declared and module-contributed
// types into the catalog.
package components
