// Package credential owns user identity records and password verification.
//
// Accounts are created at registration, mutated on role change or disable,
// and never physically deleted; a disabled account keeps its audit trail.
// Only salted Argon2id hashes are stored. Verification deliberately returns
// one error for both unknown email and wrong password so that login
// responses cannot be used to enumerate accounts.
//
// The in-memory store guards its maps with one RWMutex and individual
// records with striped per-user locks, so mutations to different users do
// not serialize behind each other.
package credential
