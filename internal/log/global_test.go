package log

import (
	"bytes"
	"sync"
	"testing"
)

func TestDefaultLoggerFollowsInstalledLogger(t *testing.T) {
	prev := DefaultLogger()
	t.Cleanup(func() { SetDefaultLogger(prev) })

	var buf bytes.Buffer
	installed := New(Config{Level: LevelInfo, Format: FormatJSON, Output: NewOutput(&buf)})
	SetDefaultLogger(installed)

	if got := DefaultLogger(); got != installed {
		t.Fatalf("DefaultLogger() = %p, want installed logger %p", got, installed)
	}
}

func TestDefaultLoggerIsCreatedOnce(t *testing.T) {
	prev := DefaultLogger()
	t.Cleanup(func() { SetDefaultLogger(prev) })
	SetDefaultLogger(nil)

	var wg sync.WaitGroup
	got := make([]*Logger, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = DefaultLogger()
		}(i)
	}
	wg.Wait()

	for i, l := range got {
		if l == nil || l != got[0] {
			t.Fatalf("caller %d got %p, want shared logger %p", i, l, got[0])
		}
	}
}
