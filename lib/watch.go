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


package lib

import (
	"context"
	"time"

	"github.com/purpleidea/nnc/util"
	"github.com/purpleidea/nnc/util/errwrap"
	"github.com/purpleidea/nnc/util/recwatch"

	"golang.org/x/time/rate"
)

// WatchInterval is the shortest time between two compiles in watch mode.
const WatchInterval = 500 * time.Millisecond

// watch compiles, and then again on every change of the input, until the
// context is cancelled. A failed compile is logged and doesn't stop watching.
func (obj *Main) watch(ctx context.Context) error {
	watcher := &recwatch.FileWatcher{
		Path:  obj.Input,
		Debug: obj.Debug,
		Logf:  util.PrefixLogf("watch: ", obj.Logf),
	}
	if err := watcher.Init(); err != nil {
		return errwrap.Wrapf(err, "can't watch `%s`", obj.Input)
	}
	defer watcher.Close()

	obj.compileAndLog(ctx)

	var limiter = rate.NewLimiter(rate.Every(WatchInterval), 1)
	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if err := event.Error; err != nil {
				return errwrap.Wrapf(err, "watch failed")
			}

		case <-ctx.Done():
			return nil
		}

		now := time.Now()
		r := limiter.ReserveN(now, 1) // one compile
		if d := r.DelayFrom(now); d > 0 {
			if obj.Debug {
				obj.Logf("limited (delay: %v)", d)
			}
			select {
			case <-time.After(d):
			case <-ctx.Done():
				r.Cancel()
				return nil
			}
		}
		obj.compileAndLog(ctx)
	}
}

func (obj *Main) compileAndLog(ctx context.Context) {
	if err := obj.Compile(ctx); err != nil {
		obj.Logf("compile failed: %+v", err)
	}
}
