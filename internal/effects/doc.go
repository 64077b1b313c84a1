// Package effects is the side-effect boundary of the strata core.
//
// Reducers are pure; anything asynchronous (a rates fetch, any external
// call) lives behind this boundary. Each workflow is a three-action
// protocol:
//
//  1. Start action dispatched by the caller. A reducer may use it to set
//     a loading flag. The boundary intercepts it by kind, pass-through.
//  2. The boundary invokes the workflow's external operation in its own
//     goroutine. The Start dispatch is never blocked.
//  3. When the operation settles, exactly one of Success (payload =
//     result) or Failure (payload = error reason) is dispatched back
//     through the ordinary Dispatch entry point.
//
// ORDERING: Start is observed by the store strictly before its terminal
// action. The terminal dispatch goes through the same serialized entry
// point as any other caller, so it cannot interleave with the Start
// dispatch that spawned it.
//
// SUPERSESSION: Each workflow declares an explicit concurrency policy.
// PolicyLatest cancels the outstanding task when a newer Start for the
// same workflow arrives; a cancelled task never dispatches its terminal
// action. PolicyConcurrent lets tasks overlap, each settling
// independently. There is no implicit default - the policy is part of
// the workflow declaration.
//
// The boundary holds no state-tree data. It only reads actions and
// re-dispatches; failure of the external operation becomes a Failure
// action carrying the reason as ordinary data, never a fault.
package effects
