// Package revocation tracks invalidated token identifiers.
//
// Entries self-expire at the revoked token's natural expiry: once a token
// would fail validation as expired anyway, keeping its jti around buys
// nothing, so the registry stays bounded by the number of live tokens.
//
// Two backends are provided. Memory is the default single-process registry
// with a lazy expiry check plus a background sweep. Redis shares the
// registry across replicas using native key TTLs; it is the substitution
// point called out by the scaling limit in the system design.
package revocation
