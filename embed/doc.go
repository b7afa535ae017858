// Package embed defines the embedding backend interface and a built-in
// feature-hashing backend that needs no model files.
package embed
