// Package family tracks token families: every access and refresh token
// descending from one login shares a family id, so a suspected theft can be
// answered by revoking the whole line at once.
//
// The store also owns the consumed flag for refresh tokens. Consumption is
// a strict compare-and-set: of any number of concurrent attempts to consume
// the same jti, exactly one succeeds and the rest observe that the token
// was already spent. Consumed is not revoked: a consumed flag blocks only
// that refresh token, while revocation is registry-wide. Both block
// reuse.
//
// Memory is the single-process default; Redis shares the flags across
// replicas, where SETNX provides the same single-winner guarantee.
package family
