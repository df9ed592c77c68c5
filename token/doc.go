// Package token encodes and decodes the AAA core's token pairs as signed
// JWTs.
//
// Both halves of a pair are structured tokens carrying {subject, role, jti,
// family id, type, issued-at, expires-at}. The codec owns signing and
// integrity verification plus the expired/malformed classification;
// revocation and consumption checks against the registries belong to the
// engine. HS256 and Ed25519 signatures are supported.
package token
