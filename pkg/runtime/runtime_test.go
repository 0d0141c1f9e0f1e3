package runtime

import (
	"context"
	"errors"
	goruntime "runtime"
	"testing"
	"time"
)

func TestTypedFlags(t *testing.T) {
	name := String("app_name", "app", "application name")
	port := Int("app_port", 8080, "listen port")
	debug := Bool("app_debug", false, "enable debug")
	tags := Strings("app_tags", []string{"base"}, "deployment tags")

	if err := ParseArgs([]string{
		"--app_name=web",
		"--app_port=9090",
		"--app_debug=true",
		"--app_tags=a,b",
	}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if name.Get() != "web" {
		t.Errorf("Expected web, got %s", name.Get())
	}
	if port.Get() != 9090 {
		t.Errorf("Expected 9090, got %d", port.Get())
	}
	if !debug.Get() {
		t.Error("Expected debug true")
	}
	got := tags.Get()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Expected [a b], got %v", got)
	}
}

func TestFlagDefaults(t *testing.T) {
	level := String("def_level", "info", "log verbosity")

	if err := ParseArgs(nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if level.Get() != "info" {
		t.Errorf("Expected default info, got %s", level.Get())
	}
	if level.Name() != "def_level" {
		t.Errorf("Expected name def_level, got %s", level.Name())
	}
}

func TestParseArgs_UnknownFlag(t *testing.T) {
	if err := ParseArgs([]string{"--no_such_flag=1"}); err == nil {
		t.Fatal("Expected error for unknown flag, got nil")
	}
}

type testApp struct {
	ran bool
	err error
}

func (a *testApp) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("nil context")
	}
	a.ran = true
	return a.err
}

func TestRun(t *testing.T) {
	wantErr := errors.New("boom")

	tests := []struct {
		name    string
		app     interface{}
		wantErr error
	}{
		{"nil app", nil, nil},
		{"runner", &testApp{}, nil},
		{"runner error", &testApp{err: wantErr}, wantErr},
		{"context func", func(ctx context.Context) error { return nil }, nil},
		{"plain func", func() error { return wantErr }, wantErr},
		{"error value", wantErr, wantErr},
		{"opaque value", struct{ Port int }{8080}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Run(tt.app)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRun_LeavesNoGoroutines(t *testing.T) {
	// Warm up the signal machinery so its one-time setup is not
	// counted against the calls below.
	if err := Run(nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	before := goruntime.NumGoroutine()
	for i := 0; i < 25; i++ {
		if err := Run(nil); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if goruntime.NumGoroutine() <= before+1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("Expected goroutine count near %d, got %d", before, goruntime.NumGoroutine())
}

func TestRun_MarksRunnerRan(t *testing.T) {
	app := &testApp{}
	if err := Run(app); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !app.ran {
		t.Error("Expected runner to be driven")
	}
}
