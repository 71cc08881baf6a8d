package version

// Version is set at build time with -ldflags "-X github.com/liamg/netscan/version.Version=..."
var Version string
