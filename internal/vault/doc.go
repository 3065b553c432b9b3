// Package vault implements the encrypted-at-rest credential store for pooled accounts.
//
// # Store
//
// [Store] maps account identifiers to secrets. On disk it is a single JSON object whose values are
// [Cipher] tokens, one per secret, so each secret is encrypted independently. The whole file is rewritten on
// every mutation through a temp file and rename in the same directory; a failed write leaves the previous
// file untouched and rolls the in-memory change back.
//
// A missing store file loads as an empty store. A token that fails to decrypt aborts the load with an error
// wrapping [shared.ErrDecryption]; the store is never silently discarded.
//
// # Tokens
//
// Tokens are versioned and timestamped, then sealed with XChaCha20-Poly1305:
//
//	0x80 | issued-at (8 bytes, big endian) | nonce (24 bytes) | ciphertext + tag
//
// The version byte and timestamp are authenticated as associated data. The result is encoded with strict,
// unpadded base64url so it can be embedded in JSON strings. Any modification is rejected.
//
// # Keys
//
// [LoadKey] makes the key survive restarts. With a passphrase, the key is derived with scrypt from a salt
// persisted in the key file, alongside a check token that detects a wrong passphrase early. Without one, a
// random key is generated on first use and written to the key file with 0600 permissions.
package vault
