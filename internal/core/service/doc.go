// Package service provides the application services of authtoken: the
// request guard, the token factory, user credential providers and the
// session bridge.
package service
