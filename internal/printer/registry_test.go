package printer

import (
	"testing"

	"lprintd/internal/driver"
	"lprintd/internal/job"
)

func TestRegistryAddGetRemove(t *testing.T) {
	reg := NewRegistry()
	rec := driver.NewPWG("pwg-test")
	p := New("pwg-test", "file:///nonexistent", rec, job.Default(), testLogger(t), nil)

	reg.Add(p)
	got, ok := reg.Get("pwg-test")
	if !ok || got != p {
		t.Fatalf("expected to find registered printer")
	}

	names := reg.List()
	if len(names) != 1 || names[0] != "pwg-test" {
		t.Fatalf("unexpected List() result: %v", names)
	}

	reg.Remove("pwg-test")
	if _, ok := reg.Get("pwg-test"); ok {
		t.Fatalf("expected printer to be removed")
	}
}
