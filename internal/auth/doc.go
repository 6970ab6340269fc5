// Package auth provides authentication and authorisation for authcore.
//
// It implements a 3-tier role model (user → moderator → admin) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Dual-secret JWT issuance: access tokens are short-lived and
//     stateless, refresh tokens are long-lived and mirrored (hashed)
//     on the user record
//   - Single-valid-refresh-token-per-user semantics: each login or
//     refresh overwrites the stored token, revoking the previous one,
//     and rotation is a compare-and-swap so concurrent refreshes
//     cannot both succeed
//   - Static role-permission mapping (compile-time, no database lookup)
//
// Two-factor authentication is presence-only: accounts can carry a
// two_factor_enabled flag and login then requires a second-factor
// token field to be present, but the token value is not verified.
// Real TOTP verification is deliberately not implemented here.
package auth
