package cli

// Build information, set with -ldflags "-X github.com/clems4ever/oscal-cli/cli.Version=..."
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
