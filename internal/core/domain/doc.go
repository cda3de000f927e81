// Package domain defines the core domain model for authtoken.
//
// The central entity is AccessToken: an opaque bearer token binding a
// user identity (or the guest sentinel) to a client application, with
// time-to-live semantics and explicit change tracking.
//
// Domain types carry no IO of their own; storage access goes through the
// Storage interface injected into the entity, never through package-level
// state.
package domain
