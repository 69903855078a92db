package main

import (
	"os"
	"runtime/debug"
	"strings"
)

// appVersion prefers MENULENS_VERSION, then Go build info, then "dev".
func appVersion() string {
	if v := strings.TrimSpace(os.Getenv("MENULENS_VERSION")); v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}
