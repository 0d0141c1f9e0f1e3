package components

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/yomimono/functoria/pkg/telemetry"
)

// Pack is a loaded WASM component pack: a sandboxed module whose
// pack_components export contributes component types to the catalog.
type Pack struct {
	// manifest is the parsed pack manifest.
	manifest *Manifest

	// runtime is the wazero runtime.
	runtime wazero.Runtime

	// module is the instantiated WASM module.
	module api.Module

	// bridge calls the module's exports.
	bridge *packBridge

	// timeout is the default timeout for pack calls.
	timeout time.Duration
}

// PackConfig configures the WASM sandbox a pack runs in.
type PackConfig struct {
	// Timeout is the default timeout for pack calls.
	Timeout time.Duration

	// MemoryLimitPages is the maximum memory limit in pages (64KB
	// each). Default is 256 pages (16MB).
	MemoryLimitPages uint32

	// Logger receives the pack's log output.
	Logger *telemetry.Logger
}

// OpenPack instantiates a pack's WASM module. The module checksum is
// verified against the manifest before instantiation; a pack with a
// bad checksum never runs.
func OpenPack(ctx context.Context, manifest *Manifest, wasmModule []byte, cfg *PackConfig) (*Pack, error) {
	if cfg == nil {
		cfg = &PackConfig{}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MemoryLimitPages == 0 {
		cfg.MemoryLimitPages = 256
	}

	if err := manifest.VerifyChecksum(wasmModule); err != nil {
		return nil, fmt.Errorf("checksum verification failed: %w", err)
	}

	runtimeConfig := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(cfg.MemoryLimitPages).
		WithCloseOnContextDone(true)

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeConfig)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	builder := runtime.NewHostModuleBuilder("env")
	registerHostFunctions(builder, packLoggerFor(cfg.Logger, manifest))
	if _, err := builder.Instantiate(ctx); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate host module: %w", err)
	}

	module, err := runtime.Instantiate(ctx, wasmModule)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASM module: %w", err)
	}

	bridge, err := newPackBridge(module, cfg.Timeout)
	if err != nil {
		module.Close(ctx)
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to create pack bridge: %w", err)
	}

	return &Pack{
		manifest: manifest,
		runtime:  runtime,
		module:   module,
		bridge:   bridge,
		timeout:  cfg.Timeout,
	}, nil
}

// packLoggerFor returns the logger host functions write through.
func packLoggerFor(logger *telemetry.Logger, manifest *Manifest) *telemetry.Logger {
	if logger == nil {
		l, err := telemetry.NewLogger(telemetry.DefaultConfig().Logging)
		if err != nil {
			return nil
		}
		logger = l
	}
	return logger.WithPack(manifest.Metadata.Name, manifest.Metadata.Version)
}

// registerHostFunctions registers the host functions packs can call.
func registerHostFunctions(builder wazero.HostModuleBuilder, logger *telemetry.Logger) {
	// pack_log(level, ptr, len) routes a pack's log line into the host
	// logger. Levels: 0 debug, 1 info, 2 warn, anything else error.
	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, level, msgPtr, msgLen uint32) {
			msgBytes, ok := mod.Memory().Read(msgPtr, msgLen)
			if !ok || logger == nil {
				return
			}
			msg := string(msgBytes)
			switch level {
			case 0:
				logger.Debug(msg)
			case 1:
				logger.Info(msg)
			case 2:
				logger.Warn(msg)
			default:
				logger.Error(msg)
			}
		}).
		Export("pack_log")
}

// Manifest returns the pack's manifest.
func (p *Pack) Manifest() *Manifest {
	return p.manifest
}

// Components calls the pack's pack_components export and returns the
// contributed component types.
func (p *Pack) Components(ctx context.Context) ([]Type, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resultJSON, err := p.bridge.call(ctx, p.bridge.packComponents, nil)
	if err != nil {
		return nil, fmt.Errorf("pack_components failed: %w", err)
	}

	var types []Type
	if err := json.Unmarshal(resultJSON, &types); err != nil {
		return nil, fmt.Errorf("failed to unmarshal component types: %w", err)
	}

	return types, nil
}

// Close closes the pack and releases its sandbox.
func (p *Pack) Close(ctx context.Context) error {
	if p.module != nil {
		if err := p.module.Close(ctx); err != nil {
			return fmt.Errorf("failed to close WASM module: %w", err)
		}
	}
	if p.runtime != nil {
		if err := p.runtime.Close(ctx); err != nil {
			return fmt.Errorf("failed to close WASM runtime: %w", err)
		}
	}
	return nil
}
