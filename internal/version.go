package internal

// version is set at build time with -ldflags "-X github.com/realliance/gazer/internal.version=..."
var version = "dev"

func GetVersion() string {
	return version
}
