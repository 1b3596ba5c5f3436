package adapters_test

import (
	"testing"
	"time"

	"github.com/momentics/gfxqueue/adapters"
)

func TestControlAdapterBasic(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	cfg := ctrl.GetConfig()
	if len(cfg) != 0 {
		t.Error("Expected empty config on init")
	}
	err := ctrl.SetConfig(map[string]any{"k": 1})
	if err != nil {
		t.Fatal(err)
	}
	applied := ctrl.GetConfig()
	if applied["k"] != 1 {
		t.Error("SetConfig did not apply")
	}

	// Reload hooks fire on their own goroutine, so wait on a channel
	// instead of polling a plain bool.
	called := make(chan struct{}, 1)
	ctrl.OnReload(func() { called <- struct{}{} })
	ctrl.SetConfig(map[string]any{"x": 2})
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Error("Reload hook not called")
	}
}
