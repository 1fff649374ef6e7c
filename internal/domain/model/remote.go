package model

// RemoteFile is a single blob read from the remote repository.
type RemoteFile struct {
	Path      string
	Content   []byte
	Signature string // Git blob SHA as reported by the content API.
}

// Manifest maps remote paths to their content signatures. It is fetched once
// per reconciliation pass.
type Manifest map[string]string

// Paths returns the manifest keys. Order is unspecified.
func (m Manifest) Paths() []string {
	out := make([]string, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	return out
}

// FileChange is one entry of a change proposal. When Delete is set, Content
// is ignored.
type FileChange struct {
	Path    string
	Content []byte
	Delete  bool
}

// ChangeProposal is a reviewable bundle of remote changes submitted as a
// pull request instead of direct commits.
type ChangeProposal struct {
	Title   string
	Body    string
	Changes []FileChange
}
