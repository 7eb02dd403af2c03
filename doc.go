// Package bioauth implements a credential-and-biometric authentication
// engine for device-resident banking clients: a state machine that decides,
// across process restarts and sensor availability changes, whether the user
// is unauthenticated, mid-authentication, or authenticated, and that binds a
// password login to an opportunistic biometric fast path backed by locally
// stored key material and a cached credential.
//
// bioauth is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (State, Route, MetricsSnapshot). Collaborator contracts
// live in their own packages: the remote identity service in
// [github.com/veldtbank/bioauth/backend], the biometric sensor in
// [github.com/veldtbank/bioauth/sensor], the secure key-value store in
// [github.com/veldtbank/bioauth/secret], and launch-lifecycle flags in
// [github.com/veldtbank/bioauth/flags]. Enrollment artifact management is in
// [github.com/veldtbank/bioauth/enroll]. Internal coordination — audit
// dispatch, metrics, rate limiting — lives under internal/ and is never
// exported.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build] and [Engine.Initialize], though the
// design assumes at most one in-flight mutating operation at a time; the
// Loading field of [State] exists so a UI can enforce that.
//
// Engine operations return errors from the closed set in errors.go and
// additionally record a short user-facing message on the engine state, which
// clears automatically after a configurable duration or on the next
// operation. Nothing in this package panics past an Engine method boundary.
package bioauth
