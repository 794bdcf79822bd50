package main

import (
	"os"

	"github.com/mitchellh/go-homedir"
)

// expandPath expands a leading tilde and environment variables in path.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	expanded, err := homedir.Expand(os.ExpandEnv(path))
	if err != nil {
		return path
	}
	return expanded
}
