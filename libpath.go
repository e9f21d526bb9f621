package vatrace

import (
	"errors"
	"os"
	"path/filepath"
)

// Library names and the variables overriding their location.
const (
	PreloadLibName = "libvatrace.so"
	VALibName      = "libva.so.2"

	EnvLibPath   = "VATRACE_LIB_PATH"
	EnvVALibPath = "VATRACE_VA_LIB"
)

// ErrLibraryNotFound is returned when no candidate path exists.
var ErrLibraryNotFound = errors.New("vatrace: library not found in any standard location")

// PreloadLibPaths lists candidate locations of libvatrace.so, highest
// priority first.
func PreloadLibPaths() []string {
	var paths []string

	// Environment variable override (highest priority). It may name the
	// library itself or the directory holding it.
	if envPath := os.Getenv(EnvLibPath); envPath != "" {
		if fi, err := os.Stat(envPath); err == nil && fi.IsDir() {
			paths = append(paths, filepath.Join(envPath, PreloadLibName))
		} else {
			paths = append(paths, envPath)
		}
	}

	// Search relative to executable location
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, PreloadLibName),
			filepath.Join(exeDir, "..", "lib", PreloadLibName),
			filepath.Join(exeDir, "..", "build", PreloadLibName),
		)
	}

	// Search relative to working directory
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths,
			filepath.Join(wd, PreloadLibName),
			filepath.Join(wd, "build", PreloadLibName),
			filepath.Join(wd, "..", "build", PreloadLibName),
		)
	}

	// Search relative to module root (find go.mod from cwd)
	if moduleRoot := findModuleRoot(); moduleRoot != "" {
		paths = append(paths, filepath.Join(moduleRoot, "build", PreloadLibName))
	}

	// System paths (lowest priority)
	paths = append(paths,
		"/usr/local/lib/"+PreloadLibName,
		"/usr/lib/"+PreloadLibName,
		"/usr/lib/x86_64-linux-gnu/"+PreloadLibName,
		"/usr/lib/aarch64-linux-gnu/"+PreloadLibName,
	)
	return paths
}

// FindPreloadLibrary returns the absolute path of the first existing
// candidate from PreloadLibPaths. LD_PRELOAD needs an absolute path to be
// independent of the traced program's working directory.
func FindPreloadLibrary() (string, error) {
	for _, p := range PreloadLibPaths() {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs, nil
			}
			return p, nil
		}
	}
	return "", ErrLibraryNotFound
}

// VALibrary returns the libva to inspect: VATRACE_VA_LIB if set, else the
// soname, left for the dynamic loader to find.
func VALibrary() string {
	if p := os.Getenv(EnvVALibPath); p != "" {
		return p
	}
	return VALibName
}

// findModuleRoot walks up the directory tree from the current working directory
// to find the module root (directory containing go.mod).
func findModuleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
