package version

// Version is set at build time via -ldflags "-X cyberguard/internal/version.Version=...".
var Version = "dev"

func String() string { return "cyberguard " + Version }
