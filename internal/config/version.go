package config

// Version is the auditflow binary version.
// Set at build time via: -ldflags "-X github.com/auditflow/auditflow/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
