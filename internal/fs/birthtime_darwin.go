package fs

import (
	"os"
	"syscall"
	"time"
)

// birthTime returns the file creation time from the BSD stat structure.
func birthTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
	}
	return time.Time{}
}
