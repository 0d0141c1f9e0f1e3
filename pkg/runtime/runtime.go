// Package runtime is the support library linked into generated
// programs. A generated main registers its run-stage keys as typed
// flags, parses the command line once, and hands its final composed
// value to Main.
package runtime

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
)

var flags = pflag.NewFlagSet(program(), pflag.ContinueOnError)

func program() string {
	if len(os.Args) == 0 {
		return "app"
	}
	return filepath.Base(os.Args[0])
}

// Flag is a typed handle on one registered run-stage key. Get returns
// the parsed value after Parse has run, or the registered default
// before that.
type Flag[T any] struct {
	name  string
	value *T
}

// Name returns the flag name.
func (f *Flag[T]) Name() string { return f.name }

// Get returns the flag's value.
func (f *Flag[T]) Get() T { return *f.value }

// String registers a string flag.
func String(name, def, help string) *Flag[string] {
	return &Flag[string]{name: name, value: flags.String(name, def, help)}
}

// Int registers an integer flag.
func Int(name string, def int, help string) *Flag[int] {
	return &Flag[int]{name: name, value: flags.Int(name, def, help)}
}

// Bool registers a boolean flag.
func Bool(name string, def bool, help string) *Flag[bool] {
	return &Flag[bool]{name: name, value: flags.Bool(name, def, help)}
}

// Strings registers a comma-separated string list flag.
func Strings(name string, def []string, help string) *Flag[[]string] {
	return &Flag[[]string]{name: name, value: flags.StringSlice(name, def, help)}
}

// ParseArgs parses the given arguments against the registered flags.
func ParseArgs(args []string) error {
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	return nil
}

// Parse parses the process command line. A malformed command line
// prints usage and exits; generated programs call Parse exactly once,
// before any flag is read.
func Parse() {
	if err := ParseArgs(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flags.PrintDefaults()
		os.Exit(2)
	}
}

// Runner is the interface a composed application value implements to
// receive control after flag parsing.
type Runner interface {
	Run(ctx context.Context) error
}

// Run drives the composed application value. Runners and run functions
// receive a context cancelled on SIGINT or SIGTERM; any other value is
// treated as fully constructed, with nothing left to drive.
func Run(app interface{}) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch v := app.(type) {
	case nil:
		return nil
	case Runner:
		return v.Run(ctx)
	case func(context.Context) error:
		return v(ctx)
	case func() error:
		return v()
	case error:
		return v
	default:
		return nil
	}
}

// Main runs the composed application value and exits non-zero on
// failure. It is the last statement of every generated program.
func Main(app interface{}) {
	if err := Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", program(), err)
		os.Exit(1)
	}
}
