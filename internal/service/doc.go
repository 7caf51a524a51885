// Package service implements the security core over the store: the
// authenticator with its lockout state machine, the best-effort audit
// recorder, the policy mutation contracts, and the traffic resolver.
package service
