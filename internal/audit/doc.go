// Package audit delivers authentication events to a pluggable [Sink] off the
// request path.
//
// The [Dispatcher] owns one buffered channel and one worker goroutine. When the
// buffer is full it either drops (counting drops) or blocks until the caller's
// context is done. Close drains whatever is already queued.
//
// The engine decides which events exist; this package only moves them.
package audit
