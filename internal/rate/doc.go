// Package rate implements the Redis fixed-window login throttle.
//
// A failed attempt runs INCR on the counter and sets EXPIRE only when the
// counter is new, so the window starts at the first failure. Keys:
//
//	tal:<username>   failures per username
//	tali:<ip>        failures per client IP
//
// A successful login deletes both counters.
package rate
