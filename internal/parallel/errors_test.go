package parallel

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestErrorCollectorFirstErrorWins(t *testing.T) {
	t.Parallel()
	first := errors.New("launch dit_stage: worker 3 failed")
	tests := []struct {
		name  string
		later []error
	}{
		{"no later errors", nil},
		{"later error ignored", []error{errors.New("worker 5 failed")}},
		{"nil ignored", []error{nil, nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var ec ErrorCollector
			ec.SetError(nil)
			ec.SetError(first)
			for _, err := range tt.later {
				ec.SetError(err)
			}
			if ec.Err() != first {
				t.Errorf("Expected %v, got %v", first, ec.Err())
			}
		})
	}
}

func TestErrorCollectorConcurrentWorkers(t *testing.T) {
	t.Parallel()
	var ec ErrorCollector
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, 64)
	for i := range errs {
		errs[i] = fmt.Errorf("work item %d", i)
		wg.Add(1)
		go func(err error) {
			defer wg.Done()
			<-start
			ec.SetError(err)
		}(errs[i])
	}
	close(start)
	wg.Wait()

	got := ec.Err()
	if got == nil || !slices.Contains(errs, got) {
		t.Errorf("Expected one of the worker errors, got %v", got)
	}
}

func TestErrorCollectorReset(t *testing.T) {
	t.Parallel()
	var ec ErrorCollector
	ec.SetError(errors.New("stale"))
	ec.Reset()
	if ec.Err() != nil {
		t.Fatalf("Expected nil after Reset, got %v", ec.Err())
	}
	fresh := errors.New("fresh")
	ec.SetError(fresh)
	if ec.Err() != fresh {
		t.Errorf("Expected %v after Reset, got %v", fresh, ec.Err())
	}
}

func TestErrorCollector_Recover(t *testing.T) {
	t.Parallel()
	ec := &ErrorCollector{}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ec.Recover()
		panic("index out of range")
	}()
	wg.Wait()

	var pe *PanicError
	if !errors.As(ec.Err(), &pe) {
		t.Fatalf("Expected *PanicError, got %T", ec.Err())
	}
	if pe.Value != "index out of range" {
		t.Errorf("Expected panic value to be kept, got %v", pe.Value)
	}
	if len(pe.Stack) == 0 {
		t.Error("Expected a stack trace")
	}
}

func TestPanicError_Unwrap(t *testing.T) {
	t.Parallel()
	base := errors.New("base")
	if !errors.Is(&PanicError{Value: base}, base) {
		t.Error("Expected error panic values to unwrap")
	}
	if (&PanicError{Value: 42}).Unwrap() != nil {
		t.Error("Expected nil unwrap for non-error panic values")
	}
}

func TestErrorCollector_RecoverWithoutPanic(t *testing.T) {
	t.Parallel()
	ec := &ErrorCollector{}
	func() {
		defer ec.Recover()
	}()
	if ec.Err() != nil {
		t.Errorf("Expected nil error, got %v", ec.Err())
	}
}
