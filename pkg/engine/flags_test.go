package engine

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestFlagBinder_RegisterAndBind(t *testing.T) {
	r := NewRegistry()
	logLevel, _ := NewKey(r, "log_level", "log verbosity", StageBoth, "info", StringDescriptor())
	port, _ := NewKey(r, "port", "listen port", StageConfigure, 8080, IntDescriptor())

	binder := NewFlagBinder(FilterAll, r.KeySet())
	fs := pflag.NewFlagSet("configure", pflag.ContinueOnError)
	binder.Register(fs)

	if err := fs.Parse([]string{"--log_level=debug", "--port=9090"}); err != nil {
		t.Fatalf("Expected no parse error, got: %v", err)
	}

	ctx := NewEvalContext()
	if errs := binder.Bind(ctx); len(errs) != 0 {
		t.Fatalf("Expected no bind errors, got: %v", errs)
	}

	v, ok := Get(ctx, logLevel)
	if !ok || v != "debug" {
		t.Errorf("Expected log_level debug, got %q (%v)", v, ok)
	}
	p, ok := Get(ctx, port)
	if !ok || p != 9090 {
		t.Errorf("Expected port 9090, got %d (%v)", p, ok)
	}

	src, _ := ctx.Source(logLevel)
	if src != SourceFlag {
		t.Errorf("Expected flag provenance, got %s", src)
	}
}

func TestFlagBinder_UnsetFlagsLeaveContextEmpty(t *testing.T) {
	r := NewRegistry()
	_, _ = NewKey(r, "log_level", "log verbosity", StageBoth, "info", StringDescriptor())

	binder := NewFlagBinder(FilterAll, r.KeySet())
	fs := pflag.NewFlagSet("configure", pflag.ContinueOnError)
	binder.Register(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("Expected no parse error, got: %v", err)
	}

	ctx := NewEvalContext()
	if errs := binder.Bind(ctx); len(errs) != 0 {
		t.Fatalf("Expected no bind errors, got: %v", errs)
	}
	if ctx.Len() != 0 {
		t.Errorf("Expected empty context, got %d cells", ctx.Len())
	}
}

func TestFlagBinder_CollectsParseFailures(t *testing.T) {
	r := NewRegistry()
	port, _ := NewKey(r, "port", "listen port", StageBoth, 8080, IntDescriptor())
	retries, _ := NewKey(r, "retries", "retry budget", StageBoth, 3, IntDescriptor())
	logLevel, _ := NewKey(r, "log_level", "log verbosity", StageBoth, "info", StringDescriptor())

	binder := NewFlagBinder(FilterAll, r.KeySet())
	fs := pflag.NewFlagSet("configure", pflag.ContinueOnError)
	binder.Register(fs)

	// Malformed values survive flag parsing; they surface at bind time.
	if err := fs.Parse([]string{"--port=eighty", "--retries=many", "--log_level=debug"}); err != nil {
		t.Fatalf("Expected no parse error, got: %v", err)
	}

	ctx := NewEvalContext()
	errs := binder.Bind(ctx)
	if len(errs) != 2 {
		t.Fatalf("Expected 2 bind errors, got %d: %v", len(errs), errs)
	}

	names := map[string]bool{}
	for _, err := range errs {
		if !IsUser(err) {
			t.Errorf("Expected user-class error, got: %v", err)
		}
		if !IsCode(err, ErrCodeParseFailure) {
			t.Errorf("Expected PARSE_FAILURE code, got: %v", err)
		}
		names[KeyName(err)] = true
	}
	if !names["port"] || !names["retries"] {
		t.Errorf("Expected failures for port and retries, got %v", names)
	}

	// The well-formed key still resolved.
	v, ok := Get(ctx, logLevel)
	if !ok || v != "debug" {
		t.Errorf("Expected log_level debug despite other failures, got %q (%v)", v, ok)
	}
	if ctx.IsSet(port) || ctx.IsSet(retries) {
		t.Error("Expected failed keys to stay unresolved")
	}
}

func TestFlagBinder_StageFilter(t *testing.T) {
	r := NewRegistry()
	confOnly, _ := NewKey(r, "target_dir", "output directory", StageConfigure, ".", StringDescriptor())
	runOnly, _ := NewKey(r, "log_level", "log verbosity", StageRun, "info", StringDescriptor())
	both, _ := NewKey(r, "port", "listen port", StageBoth, 8080, IntDescriptor())

	cases := []struct {
		filter StageFilter
		want   []string
	}{
		{FilterAll, []string{"log_level", "port", "target_dir"}},
		{FilterConfigure, []string{"port", "target_dir"}},
		{FilterRuntime, []string{"log_level", "port"}},
	}
	for _, tc := range cases {
		binder := NewFlagBinder(tc.filter, r.KeySet())
		keys := binder.Keys()
		if len(keys) != len(tc.want) {
			t.Errorf("Filter %s: expected %d keys, got %d", tc.filter, len(tc.want), len(keys))
			continue
		}
		for i, k := range keys {
			if k.Name() != tc.want[i] {
				t.Errorf("Filter %s: expected key %d to be %s, got %s", tc.filter, i, tc.want[i], k.Name())
			}
		}
	}

	_, _, _ = confOnly, runOnly, both
}

func TestFlagBinder_Aliases(t *testing.T) {
	r := NewRegistry()
	k, err := NewKeyRaw(r, Doc{
		Help:    "log verbosity",
		Aliases: []string{"verbosity"},
	}, StageBoth, "info", "log_level", StringDescriptor())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	binder := NewFlagBinder(FilterAll, r.KeySet())
	fs := pflag.NewFlagSet("configure", pflag.ContinueOnError)
	binder.Register(fs)

	if err := fs.Parse([]string{"--verbosity=trace"}); err != nil {
		t.Fatalf("Expected no parse error, got: %v", err)
	}

	ctx := NewEvalContext()
	if errs := binder.Bind(ctx); len(errs) != 0 {
		t.Fatalf("Expected no bind errors, got: %v", errs)
	}

	v, ok := Get(ctx, k)
	if !ok || v != "trace" {
		t.Errorf("Expected alias to set log_level to trace, got %q (%v)", v, ok)
	}
}

func TestFlagBinder_DefaultShownInUsage(t *testing.T) {
	r := NewRegistry()
	_, err := NewKeyRaw(r, Doc{
		Help:        "listen port",
		Placeholder: "PORT",
	}, StageBoth, 8080, "port", IntDescriptor())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	binder := NewFlagBinder(FilterAll, r.KeySet())
	fs := pflag.NewFlagSet("configure", pflag.ContinueOnError)
	binder.Register(fs)

	f := fs.Lookup("port")
	if f == nil {
		t.Fatal("Expected port flag to be registered")
	}
	if f.DefValue != "8080" {
		t.Errorf("Expected default 8080 in usage, got %s", f.DefValue)
	}
	if f.Value.Type() != "PORT" {
		t.Errorf("Expected placeholder PORT, got %s", f.Value.Type())
	}
}
