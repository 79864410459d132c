// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// Build identity, reported by the version subcommand. Release builds
// override these via -ldflags -X github.com/pixelheap/imagedex/pkg/utils.<var>.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
