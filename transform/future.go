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

package transform

import (
	"context"

	"github.com/purpleidea/nnc/interfaces"
)

// Future is the result of a unit of work that runs in the background.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn in a new goroutine and returns a future for its result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{
		done: make(chan struct{}),
	}
	go func() {
		defer close(f.done)
		f.value, f.err = fn()
	}()
	return f
}

// RunAsync is like Run, but returns at once. The result is in the future.
func RunAsync[T any](ctx context.Context, sess *interfaces.Session, pass Pass[T], subject T) *Future[T] {
	return Go(func() (T, error) {
		return Run(ctx, sess, pass, subject)
	})
}

// Done returns a channel which closes when the result is ready.
func (obj *Future[T]) Done() <-chan struct{} {
	return obj.done
}

// Wait blocks until the result is ready or the context closes. The work itself
// is not cancelled by the context of Wait.
func (obj *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-obj.done:
		return obj.value, obj.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
