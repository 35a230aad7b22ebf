// Package defaults provides the built-in operation set registered through
// the same handler interface as user operations: file access, checksums,
// archive extraction, HTTP fetches, directory listings and session control.
//
// The engine has no notion of "default" versus "custom" handlers; this
// package is a bulk registration convenience whose argument counts and
// payload shapes are a contract with the frontend API, independent of the
// dispatch engine's correctness. Long-running operations (downloads,
// extraction) emit progress events through their MessageContext.
package defaults
