// Package auth issues and verifies the bearer tokens that API and WebSocket
// callers present to the bridge.
//
// There are no local user accounts. The operator mints a token with
// `sesamectl token -sub <name> -role viewer|operator` and hands it to the
// caller; the bridge verifies the HS256 signature, issuer and expiry on every
// request and checks the role's permissions.
package auth
