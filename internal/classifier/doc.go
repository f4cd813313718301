// Package classifier provides image classifiers for the camera feed.
//
// Random is a seedable stand-in that draws a confidence score per image.
// Remote asks an HTTP inference service and guards it with a circuit breaker,
// falling back to a configured verdict whenever the service misbehaves.
package classifier
