// Package jwt signs and parses the compact HS256 session tokens used for access and
// refresh. It classifies every parse failure as exactly one of [ErrInvalidSignature],
// [ErrExpired] or [ErrMalformed] and leaves token-kind checks to the caller.
package jwt
