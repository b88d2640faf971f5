// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser knows how to extract text
// content from a specific MIME type.
//
// Normalisers are registered with the Registry at startup; the registry
// dispatches each upload to the highest-priority normaliser claiming its
// MIME type.
package normalisers
