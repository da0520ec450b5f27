/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"bytes"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// flightCall is an in-flight or completed load for a single key.
type flightCall[V any] struct {
	wg  sync.WaitGroup
	val V
	err error
}

// flightGroup suppresses duplicate loads: at most one call per key is in flight
// at a time, and duplicate callers receive the leader's result.
// It backs LRUCache.GetOrLoad.
type flightGroup[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*flightCall[V]
}

// Do executes and returns the result of the given function, making sure that
// only one execution is in flight for the given key at a time. If a duplicate
// comes in, the duplicate caller waits for the original to complete and
// receives the same result.
func (g *flightGroup[K, V]) Do(key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*flightCall[V])
	}
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err
	}
	c := &flightCall[V]{}
	c.wg.Add(1)
	g.m[key] = c
	g.mu.Unlock()

	return g.do(c, key, fn)
}

func (g *flightGroup[K, V]) do(c *flightCall[V], key K, fn func() (V, error)) (val V, err error) {
	normalReturn := false
	recovered := false

	// double-defer to distinguish panic from runtime.Goexit
	defer func() {
		if !normalReturn && !recovered {
			c.err = ErrGoexit
		}

		c.wg.Done()

		g.mu.Lock()
		delete(g.m, key)
		g.mu.Unlock()

		if recovered {
			panic(c.err.(*PanicError).Value) // re-panic on the same goroutine
		}

		val, err = c.val, c.err
	}()

	defer func() {
		if !normalReturn {
			if v := recover(); v != nil {
				c.err = newPanicError(v)
				recovered = true
			}
		}
	}()
	c.val, c.err = fn()
	normalReturn = true

	return c.val, c.err // will be set in the defer
}

// ErrGoexit is returned to the waiting callers when the loading goroutine calls runtime.Goexit.
var ErrGoexit = errors.New("runtime.Goexit was called")

// PanicError is an error that represents a panic value and stack trace of a failed load.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("%v\n\n%s", p.Value, p.Stack)
}

func (p *PanicError) Unwrap() error {
	err, ok := p.Value.(error)
	if !ok {
		return nil
	}
	return err
}

func newPanicError(v interface{}) error {
	stack := debug.Stack()

	// The first line of the stack trace is of the form "goroutine N [status]:"
	// but by the time the panic reaches Do the goroutine may no longer exist
	// and its status will have changed. Trim out the misleading line.
	if line := bytes.IndexByte(stack, '\n'); line >= 0 {
		stack = stack[line+1:]
	}
	return &PanicError{Value: v, Stack: stack}
}
