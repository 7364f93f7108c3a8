package fs

import (
	"os"
	"syscall"
	"time"
)

// birthTime returns the file creation time from the Win32 attribute data.
func birthTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, st.CreationTime.Nanoseconds())
	}
	return time.Time{}
}
