// Package token holds process-wide bearer-token key material and the
// fingerprint used to refer to a token in logs without revealing it.
//
// Environment:
//   - NOTES_TOKEN_SIGNING_KEY: HS256 secret, at least MinSigningKeyBytes long.
package token
