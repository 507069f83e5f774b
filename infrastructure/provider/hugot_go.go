//go:build !ORT

package provider

import "github.com/knights-analytics/hugot"

// newHugotSession uses the pure Go backend. Slower than ONNX Runtime but
// needs no shared library.
func newHugotSession() (*hugot.Session, error) {
	return hugot.NewGoSession()
}
