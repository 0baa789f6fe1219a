package proctree

// Ops is the single capability surface over platform process-tree queries
// and signal delivery. All supervisory code depends on this interface; the
// unix and windows files provide the two implementations.
type Ops interface {
	// Exists probes pid with a zero-effect signal. "No such process" is the
	// only outcome mapped to false; permission errors and any other failure
	// report true. Treating EPERM as alive is a deliberate conservative
	// assumption: a pid we cannot signal is not ours to reap, and the unsafe
	// direction would be a false "dead".
	Exists(pid int) bool

	// Descendants returns the transitive children of pid from one snapshot
	// of the process table. An empty slice is always a valid result; query
	// failures are indistinguishable from "no children".
	Descendants(pid int) []int

	// ListBySignature returns the pids of all OS processes whose command
	// line contains signature. Enumeration failures yield an empty slice.
	ListBySignature(signature string) []int

	// Terminate requests a graceful stop of one pid.
	Terminate(pid int) error

	// Kill forcefully stops pid. On Windows this may take down the whole
	// tree in one call; on POSIX it is a single SIGKILL.
	Kill(pid int) error
}

// System returns the Ops implementation for the current platform.
func System() Ops { return systemOps{} }
