// Package password derives and checks salted Argon2id password credentials.
//
// A credential is a (salt, hash) pair stored as two separate base64 strings on
// the account record. The Argon2id cost parameters are process configuration,
// not part of the stored value, so every credential in a deployment is
// verified with the parameters the process was started with.
package password
