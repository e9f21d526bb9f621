package vatrace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPreloadLibPaths_EnvFirst(t *testing.T) {
	dir := t.TempDir()

	t.Setenv(EnvLibPath, dir)
	paths := PreloadLibPaths()
	if len(paths) == 0 || paths[0] != filepath.Join(dir, PreloadLibName) {
		t.Errorf("PreloadLibPaths()[0] with directory override = %v", paths)
	}

	file := filepath.Join(dir, "custom.so")
	t.Setenv(EnvLibPath, file)
	if paths := PreloadLibPaths(); paths[0] != file {
		t.Errorf("PreloadLibPaths()[0] with file override = %s, want %s", paths[0], file)
	}
}

func TestFindPreloadLibrary(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, PreloadLibName)
	if err := os.WriteFile(lib, []byte{0x7f, 'E', 'L', 'F'}, 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvLibPath, dir)
	got, err := FindPreloadLibrary()
	if err != nil {
		t.Fatalf("FindPreloadLibrary() error = %v", err)
	}
	if got != lib {
		t.Errorf("FindPreloadLibrary() = %s, want %s", got, lib)
	}
}

func TestVALibrary(t *testing.T) {
	t.Setenv(EnvVALibPath, "")
	if got := VALibrary(); got != VALibName {
		t.Errorf("VALibrary() = %s, want %s", got, VALibName)
	}
	t.Setenv(EnvVALibPath, "/opt/libva/lib/libva.so.2")
	if got := VALibrary(); got != "/opt/libva/lib/libva.so.2" {
		t.Errorf("VALibrary() = %s", got)
	}
}

func TestFindModuleRoot(t *testing.T) {
	root := findModuleRoot()
	if root == "" {
		t.Skip("not running inside a module")
	}
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err != nil {
		t.Errorf("findModuleRoot() = %s without go.mod", root)
	}
}
