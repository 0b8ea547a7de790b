package retention

// Result is the tally of one enforcement run.
type Result struct {
	// Deleted and Failed sum the per-namespace counts.
	Deleted int
	Failed  int

	// BytesReclaimed sums SizeOnDisk over deleted files.
	BytesReclaimed int64

	// Aborted is set when AbortOnInvalidPolicy stopped the run. The tally
	// is then zero regardless of what was deleted before the abort.
	Aborted bool

	// DryRun is set when nothing was actually unlinked.
	DryRun bool

	Namespaces []NamespaceResult
}

// NamespaceResult is the outcome for one namespace.
type NamespaceResult struct {
	Namespace string

	// PolicyNamespace is the namespace of the policy applied, which is
	// "default" when the namespace has none of its own.
	PolicyNamespace string

	Deleted        int
	Failed         int
	BytesReclaimed int64

	// Skipped is set when the policy was missing or invalid; Reason says why.
	Skipped bool
	Reason  string
}

func (r *Result) add(ns NamespaceResult) {
	r.Deleted += ns.Deleted
	r.Failed += ns.Failed
	r.BytesReclaimed += ns.BytesReclaimed
	r.Namespaces = append(r.Namespaces, ns)
}
