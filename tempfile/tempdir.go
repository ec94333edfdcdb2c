package tempfile

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// spillTempDirName is the subdirectory used when falling back to the home or working directory
const spillTempDirName = ".spillsort-tmp"

// dirChoice caches the selected directories, computed once per process
type dirChoice struct {
	diskPreferred string
	memoryAllowed string
}

var selectDirs = sync.OnceValue(func() dirChoice {
	osTemp := os.TempDir()
	fallbacks := buildAdditionalFallbacks()
	return dirChoice{
		diskPreferred: firstUsable(append(append(buildDiskPreferredCandidates(), osTemp), fallbacks...), osTemp),
		memoryAllowed: firstUsable(append([]string{osTemp}, fallbacks...), osTemp),
	}
})

// GetTempDir returns the directory temporary runs should be written to.
// A non-empty, usable dir is returned as is. Otherwise the result is a
// directory selected once per process: with preferDiskBacked set, locations
// traditionally backed by disk (such as /var/tmp) are preferred over /tmp,
// which is frequently a tmpfs and would defeat the purpose of spilling.
func GetTempDir(dir string, preferDiskBacked bool) string {
	if dir != "" && isDirectoryUsable(dir) {
		return dir
	}
	choice := selectDirs()
	if preferDiskBacked {
		return choice.diskPreferred
	}
	return choice.memoryAllowed
}

// firstUsable returns the first usable candidate, or fallback.
func firstUsable(candidates []string, fallback string) string {
	for _, candidate := range candidates {
		if isDirectoryUsable(candidate) {
			return candidate
		}
	}
	return fallback
}

// buildDiskPreferredCandidates returns directories that are more likely to be disk-backed
// rather than memory-backed (like tmpfs).
func buildDiskPreferredCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/var/tmp", "/private/var/tmp"}
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris":
		return []string{"/var/tmp"}
	default:
		// windows temp dirs are disk-backed already
		return nil
	}
}

// buildAdditionalFallbacks returns subdirectories of the user's home directory
// and the current working directory, used as last resort.
func buildAdditionalFallbacks() []string {
	var candidates []string
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		candidates = append(candidates, filepath.Join(homeDir, spillTempDirName))
	}
	if workDir, err := os.Getwd(); err == nil && workDir != "" {
		candidates = append(candidates, filepath.Join(workDir, spillTempDirName))
	}
	return candidates
}

// isDirectoryUsable reports whether dir is an existing directory, or does not
// exist yet and could be created. Writability is checked when a file is created.
func isDirectoryUsable(dir string) bool {
	stat, err := os.Stat(dir)
	if err != nil {
		return os.IsNotExist(err)
	}
	return stat.IsDir()
}
