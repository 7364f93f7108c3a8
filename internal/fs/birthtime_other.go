//go:build !darwin && !windows

package fs

import (
	"os"
	"time"
)

// birthTime returns the zero time: Linux and the remaining platforms do
// not expose a creation timestamp through the portable stat interface.
func birthTime(_ os.FileInfo) time.Time {
	return time.Time{}
}
