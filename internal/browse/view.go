package browse

import (
	"github.com/justyntemme/prism/internal/resolve"
)

// View is the pull boundary over one folder. It carries the path the
// caller believes is active; once the browser's active folder moves on,
// every call on the stale view returns nothing and mutates nothing.
type View struct {
	b    *Browser
	path string
}

// Path returns the folder this view was opened for.
func (v *View) Path() string { return v.path }

// Next resolves and returns the next entry for the folder.
//
// The tri-state result matches the resolution pipeline: an entry, a
// no-value step worth retrying, or the terminal done. A view whose path
// is no longer active gets (nil, StatusNone) unconditionally, so
// entries from a previous folder never leak into the next folder's
// pull stream. Errors never cross this boundary; they are absorbed
// below it.
func (v *View) Next() (*resolve.Entry, resolve.Status) {
	v.b.mu.Lock()
	if v.b.active != v.path {
		v.b.mu.Unlock()
		return nil, resolve.StatusNone
	}
	st, ok := v.b.sessions[v.path]
	if !ok {
		v.b.mu.Unlock()
		return nil, resolve.StatusNone
	}
	ctx := v.b.activeCtx
	sess := st.sess
	v.b.mu.Unlock()

	// The step runs outside the browser lock; the activation context
	// aborts it if the active folder changes mid-flight.
	return v.b.pipeline.ResolveNext(ctx, sess)
}

// NextBatch performs up to n resolution steps in one call, stopping
// early at the end of the folder or when the view goes stale. Skipped
// entries consume steps so one batch does a bounded amount of I/O.
// n <= 0 uses the browser's configured batch size.
func (v *View) NextBatch(n int) ([]resolve.Entry, resolve.Status) {
	if n <= 0 {
		n = v.b.batch
	}

	var entries []resolve.Entry
	status := resolve.StatusNone
	for steps := 0; steps < n; steps++ {
		entry, s := v.Next()
		status = s
		if entry != nil {
			entries = append(entries, *entry)
			continue
		}
		if s == resolve.StatusDone {
			break
		}
		// A no-value step on a live view is a skipped entry; a
		// stale view will never produce again, so stop early.
		if !v.Live() {
			break
		}
	}
	return entries, status
}

// Live reports whether the view's folder is still the active one. A
// view that stopped being live never produces entries again.
func (v *View) Live() bool {
	v.b.mu.Lock()
	defer v.b.mu.Unlock()
	if v.b.active != v.path {
		return false
	}
	_, ok := v.b.sessions[v.path]
	return ok
}
