package gnabcd

var (
	// Version of gnabcd, set during build.
	Version = "v0.1.0"

	// Build timestamp, set during build.
	Build = "n/a"
)
