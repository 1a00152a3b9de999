// Package session implements credential-backed sessions for the notes API.
//
// A session is a self-contained bearer token (JWT HS256 by default, PASETO
// v4.public optionally) that is honored only while it is a member of its
// account's token set. Sign-in adds the token, sign-out removes it, and the
// request guard checks both the signature and the membership.
//
// The package never performs its own locking around the token set; it relies
// on the backing store's atomic set update.
package session
