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


// Package recwatch provides file watching events via fsnotify.
package recwatch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
)

// Event represents a watcher event. These can include errors.
type Event struct {
	Error error
	Body  *fsnotify.Event
}

// FileWatcher sends an event whenever the file at Path changes. It watches the
// parent directory, so that the file may be replaced by a rename, which is how
// most editors save. Run Init() on it.
type FileWatcher struct {
	// Path is the computer path that we're watching.
	Path string

	Debug bool
	Logf  func(format string, v ...interface{})

	safename string // absolute path
	watcher  *fsnotify.Watcher
	events   chan Event // one channel for events and err...
	wg       sync.WaitGroup
	exit     chan struct{}
}

// NewFileWatcher creates and initializes a new file watcher.
func NewFileWatcher(path string, logf func(format string, v ...interface{})) (*FileWatcher, error) {
	obj := &FileWatcher{
		Path: path,
		Logf: logf,
	}
	return obj, obj.Init()
}

// Init starts the file watcher.
func (obj *FileWatcher) Init() error {
	if obj.Logf == nil {
		return fmt.Errorf("recwatch: logf must not be nil")
	}
	p, err := filepath.Abs(obj.Path)
	if err != nil {
		return err
	}
	obj.safename = filepath.Clean(p)
	obj.events = make(chan Event)
	obj.exit = make(chan struct{})

	obj.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(obj.safename)
	if err := obj.watcher.Add(dir); err != nil {
		obj.watcher.Close()
		if err == syscall.ENOSPC {
			// no space left on device, out of inotify watches
			return fmt.Errorf("out of inotify watches: %v", err)
		} else if os.IsPermission(err) {
			return fmt.Errorf("permission denied adding a watch: %v", err)
		}
		return err
	}
	if obj.Debug {
		obj.Logf("watching: %s", dir)
	}

	obj.wg.Add(1)
	go func() {
		defer obj.wg.Done()
		defer close(obj.events)
		obj.watch()
	}()
	return nil
}

// Close shuts down the watcher. The events channel is closed once it's done.
func (obj *FileWatcher) Close() error {
	close(obj.exit) // send exit signal
	err := obj.watcher.Close()
	obj.wg.Wait()
	return err
}

// Events returns a channel of events. These include events for errors.
func (obj *FileWatcher) Events() <-chan Event { return obj.events }

func (obj *FileWatcher) watch() {
	for {
		var ev Event
		select {
		case event, ok := <-obj.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != obj.safename {
				continue // something else in the same dir
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue // chmod or removal, nothing to read
			}
			if obj.Debug {
				obj.Logf("watch(%s): %v", event.Name, event.Op)
			}
			ev = Event{Body: &event}

		case err, ok := <-obj.watcher.Errors:
			if !ok {
				return
			}
			ev = Event{Error: err}

		case <-obj.exit:
			return
		}

		select {
		case obj.events <- ev:
		// exit even when we're blocked on event sending
		case <-obj.exit:
			return
		}
	}
}
