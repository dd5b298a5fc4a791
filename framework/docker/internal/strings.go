package internal

import (
	"regexp"
	"strings"
)

// CondenseHostName truncates the middle of the given name
// if it is 64 characters or longer.
//
// Without this helper, you may see an error like:
//
//	API error (500): failed to create shim: OCI runtime create failed: container_linux.go:380: starting container process caused: process_linux.go:545: container init caused: sethostname: invalid argument: unknown
func CondenseHostName(name string) string {
	if len(name) < 64 {
		return name
	}

	// ... causes resolution problems for other hosts.
	// _._ is okay if there is a . on either end.
	return name[:30] + "_._" + name[len(name)-30:]
}

var validContainerCharsRE = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// SanitizeDockerResourceName returns name with any
// invalid characters replaced with underscores.
// Subtests will include slashes, and there may be other
// invalid characters too.
func SanitizeDockerResourceName(name string) string {
	return validContainerCharsRE.ReplaceAllLiteralString(name, "_")
}

// AnyNameHasSuffix reports whether any of the names recorded by the engine ends with suffix.
// The engine prefixes names with "/", which does not affect the comparison.
func AnyNameHasSuffix(names []string, suffix string) bool {
	for _, n := range names {
		if strings.HasSuffix(n, suffix) {
			return true
		}
	}
	return false
}
