// ABOUTME: Version constants for the client
// ABOUTME: Reported on the CLI and in upgrade request headers
package version

const (
	// Version is the client release, "dev" on unreleased builds.
	Version = "0.1.0"

	// Product is the client's user-facing name.
	Product = "gqlwire"
)
