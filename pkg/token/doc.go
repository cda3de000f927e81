// Package token implements the self-checksumming access token format.
//
// A token embeds a recomputable hash of its own random segment so that
// structural integrity can be verified without a storage lookup.
//
// Token Format (for a configured random-segment length L, L even):
//
//   - R: L random alphanumeric characters
//   - H: hex SHA-256 of R (64 characters, letter case randomized)
//   - token: R[0:ceil(L/2)] + H + R[ceil(L/2):L]
//   - Total: L + 64 characters
//
// The checksum guards against corrupted or trivially malformed tokens
// reaching storage. It is not a secrecy mechanism: unguessability relies
// entirely on the entropy of R.
//
// Both the issuing and the validating side must agree on L; validation
// with a mismatched length always fails.
package token
