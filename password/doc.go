// Package password hashes and verifies account passwords.
//
// Two formats are supported:
//
//	$2a$ / $2b$ / $2y$                  bcrypt (default, passlib compatible)
//	$argon2id$v=19$m=..,t=..,p=..$s$h   argon2id PHC string
//
// [Multi] dispatches Verify on the stored hash prefix so one account table can hold
// both formats while new hashes are produced by a single primary [Hasher].
//
// This package never stores passwords and never logs plaintext or hash material.
package password
