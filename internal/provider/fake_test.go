package provider

import (
	"context"
	"errors"
	"testing"
)

func TestFakeCreateReadyImmediately(t *testing.T) {
	f := NewFake("test")

	instance, err := f.Create(context.Background(), CreateSpec{Name: "vm-1", Image: "img", Size: "small"})
	if err != nil {
		t.Fatalf("Create() unexpected error = %v", err)
	}
	if instance.ID == "" {
		t.Error("Create() returned empty instance ID")
	}
	if instance.Address == "" {
		t.Error("Create() returned empty address for a ready instance")
	}
}

func TestFakeCreateTimesOutOnStubbornScript(t *testing.T) {
	f := NewFake("test")
	f.Script = []string{"new"}
	f.Poll.Attempts = 3

	_, err := f.Create(context.Background(), CreateSpec{Name: "vm-1"})
	var timeout *ReadinessTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("Create() error = %v, want ReadinessTimeoutError", err)
	}
	if f.DescribeCalls() != 3 {
		t.Errorf("describe calls = %v, want 3", f.DescribeCalls())
	}
}

func TestFakeDestroyUnknownInstanceSucceeds(t *testing.T) {
	f := NewFake("test")

	if err := f.Destroy(context.Background(), "never-existed"); err != nil {
		t.Fatalf("Destroy() unexpected error = %v", err)
	}
}

func TestFakeDescribeUnknownInstance(t *testing.T) {
	f := NewFake("test")

	_, err := f.Describe(context.Background(), "never-existed")
	if !errors.Is(err, ErrInstanceNotFound) {
		t.Fatalf("Describe() error = %v, want ErrInstanceNotFound", err)
	}
}
