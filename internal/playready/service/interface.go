// Package service provides the stateless PlayReady helpers: protected header
// resolution, pssh parsing and content key normalisation.
package service

// HeaderResolver turns a client supplied protected-content header payload into
// the WRM header accepted by the engine.
type HeaderResolver interface {
	// Resolve returns the WRM header or ErrHeaderResolutionFailed.
	Resolve(payload string) (string, error)
}
