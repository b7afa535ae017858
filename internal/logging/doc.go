// Package logging provides the structured logger shared by the cache, the
// CLI and the source adapters.
package logging
