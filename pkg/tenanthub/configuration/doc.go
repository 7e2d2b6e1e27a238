// Package configuration provides the Configuration extension that every
// tenant hub registers first.
//
// The extension owns a tenant's configuration map. It listens for
// configuration request events, applies them, and broadcasts the
// resulting configuration as a response-content event. Privacy status
// requests are answered with a response correlated to the request.
package configuration
