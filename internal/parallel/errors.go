// Package parallel provides utilities for fan-out work on goroutines.
package parallel

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrorCollector collects the first error from parallel goroutines.
// It is safe for concurrent use.
//
// Usage:
//
//	var ec parallel.ErrorCollector
//	var wg sync.WaitGroup
//	wg.Add(2)
//	go func() {
//	    defer wg.Done()
//	    defer ec.Recover()
//	    ec.SetError(doWork1())
//	}()
//	go func() {
//	    defer wg.Done()
//	    ec.SetError(doWork2())
//	}()
//	wg.Wait()
//	if err := ec.Err(); err != nil {
//	    return err
//	}
type ErrorCollector struct {
	once sync.Once
	mu   sync.Mutex
	err  error
}

// SetError records an error if one hasn't been recorded yet.
// Nil errors are ignored.
//
// Parameters:
//   - err: The error to record (nil is ignored).
func (c *ErrorCollector) SetError(err error) {
	if err != nil {
		c.once.Do(func() {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
		})
	}
}

// Recover converts a panic in the calling goroutine into a recorded
// *PanicError. It must be called directly by defer.
func (c *ErrorCollector) Recover() {
	if r := recover(); r != nil {
		c.SetError(&PanicError{Value: r, Stack: debug.Stack()})
	}
}

// Err returns the first recorded error, or nil if no error was recorded.
//
// Returns:
//   - error: The first recorded error or nil.
func (c *ErrorCollector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Reset resets the collector for reuse.
// WARNING: This is NOT thread-safe and should only be called when
// no goroutines are using the collector.
func (c *ErrorCollector) Reset() {
	c.once = sync.Once{}
	c.err = nil
}

// PanicError wraps a value recovered from a panicking goroutine.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
