// Package firmware loads a raw binary image from the host filesystem
// and hands it to a board's flash region. It performs no
// interpretation of the image beyond the minimum needed to fail fast;
// decoding the vector table remains CPU reset's job (§4.5).
package firmware

import (
	"os"
	"path/filepath"

	"github.com/cortexsim/armboard/internal/simerr"
)

// Load reads path and returns its raw bytes. Relative paths are
// resolved against the current working directory; absolute paths are
// read as given. This mirrors the teacher's own sandboxed-path
// convention for host file access, generalized from write to read
// since firmware loading only ever reads.
func Load(path string) ([]byte, error) {
	resolved := path
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, simerr.Wrap(simerr.KindConfiguration, err, "failed to resolve firmware path %s", path)
		}
		resolved = abs
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, simerr.New(simerr.KindConfiguration, "firmware image not found: %s", path)
		}
		return nil, simerr.Wrap(simerr.KindConfiguration, err, "failed to read firmware image %s", path)
	}
	return data, nil
}
