// Package password provides Argon2id password hashing for the single admin
// credential. Hashes use the standard encoded form
// ($argon2id$v=19$m=...,t=...,p=...$salt$key) so they survive parameter
// changes: verification always uses the parameters embedded in the hash,
// bounded to sane limits.
package password
