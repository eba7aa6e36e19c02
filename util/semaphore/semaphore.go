// Nnc
// Copyright (C) 2013-2026+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package semaphore contains an implementation of a counting semaphore.
package semaphore

import (
	"context"
	"fmt"
)

// Semaphore is a counting semaphore. It must be initialized before use.
type Semaphore struct {
	C      chan struct{}
	closed chan struct{}
}

// NewSemaphore creates a new semaphore. A size below one is treated as one,
// which serializes everything that is guarded by it.
func NewSemaphore(size int) *Semaphore {
	obj := &Semaphore{}
	obj.Init(size)
	return obj
}

// Init initializes the semaphore.
func (obj *Semaphore) Init(size int) {
	if size < 1 {
		size = 1
	}
	obj.C = make(chan struct{}, size)
	obj.closed = make(chan struct{})
}

// Close shuts down the semaphore and releases all the locks.
func (obj *Semaphore) Close() {
	close(obj.closed)
}

// P acquires n resources. It returns early with an error if the context closes
// or the semaphore is shut down.
func (obj *Semaphore) P(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		select {
		case obj.C <- struct{}{}: // acquire one
		case <-obj.closed: // exit signal
			return fmt.Errorf("closed")
		case <-ctx.Done():
			// give back what we already took
			for j := 0; j < i; j++ {
				<-obj.C
			}
			return ctx.Err()
		}
	}
	return nil
}

// V releases n resources.
func (obj *Semaphore) V(n int) error {
	for i := 0; i < n; i++ {
		select {
		case <-obj.C: // release one
		case <-obj.closed: // exit signal
			return fmt.Errorf("closed")
		default: // trying to release something that isn't locked
			panic("semaphore: V > P")
		}
	}
	return nil
}
