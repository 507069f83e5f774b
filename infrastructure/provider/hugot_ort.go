//go:build ORT

package provider

import (
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
)

func newHugotSession() (*hugot.Session, error) {
	var opts []options.WithOption
	if dir := onnxLibraryDir(); dir != "" {
		opts = append(opts, options.WithOnnxLibraryPath(dir))
	}
	return hugot.NewORTSession(opts...)
}

// onnxLibraryDir checks ORT_LIB_DIR, then lib/ next to the executable, then
// lib/ in the working directory. Empty means use the platform default.
func onnxLibraryDir() string {
	if dir := os.Getenv("ORT_LIB_DIR"); dir != "" {
		return dir
	}

	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "lib"))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, "lib"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return ""
}
