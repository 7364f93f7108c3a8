package browse

// PersistPolicy decides, on a folder switch, whether the outgoing
// folder's session is written to the slow tier or dropped. An explicit
// Remember call on the browser overrides the policy for that folder.
type PersistPolicy func(path string) bool

// NeverPersist is the default: sessions are ephemeral, so casual
// browsing cannot grow the disk tier without an explicit opt-in.
func NeverPersist(string) bool { return false }

// AlwaysPersist keeps every visited folder in the slow tier.
func AlwaysPersist(string) bool { return true }
