// Package watcher triggers catalog synchronization runs from filesystem
// events. Every directory under the configured roots is watched with
// fsnotify; bursts of events are coalesced into a single trigger after a
// quiet period.
package watcher
