// Package flows hosts the orchestration logic for the multi-step engine
// operations. Each flow is a plain function over a dependency struct of
// closures, so the sequencing and failure classification can be exercised
// without a built engine while the root package keeps error mapping and
// audit emission to itself.
package flows
