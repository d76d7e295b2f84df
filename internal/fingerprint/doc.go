// Package fingerprint derives the catalog metadata of an asset from its
// bytes: size, pixel dimensions, declared rotation, corruption status and a
// content hash.
//
// Supported hash algorithms:
//
//   - sha512: SHA-512 of the raw bytes (128 hex characters), the default
//   - md5: MD5 of the raw bytes (32 hex characters)
//   - blake2b: BLAKE2b-512 of the raw bytes (128 hex characters)
//   - phash: 64-bit DCT perceptual hash of the decoded image (16 hex characters)
//   - dhash: 64-bit difference hash of the decoded image (16 hex characters)
//
// Content hashes are computed even when the image cannot be decoded.
// Perceptual hashes need pixels; for undecodable assets they fall back to
// SHA-512 of the raw bytes.
package fingerprint
