package model

// PublishStatus is a computed, never persisted snapshot of how the local
// candidate set relates to the remote repository. The four sets are disjoint.
type PublishStatus struct {
	UnpublishedNotes []Note   // Eligible, no remote counterpart.
	ChangedNotes     []Note   // Eligible, remote counterpart with a different signature.
	PublishedNotes   []Note   // Eligible, remote counterpart with an equal signature.
	DeletedNotePaths []string // Scoped remote paths with no eligible local candidate.
}

// ToPublish returns the notes a batch publish should write: changed notes
// first, then unpublished ones.
func (s PublishStatus) ToPublish() []Note {
	out := make([]Note, 0, len(s.ChangedNotes)+len(s.UnpublishedNotes))
	out = append(out, s.ChangedNotes...)
	out = append(out, s.UnpublishedNotes...)
	return out
}

// InSync reports whether there is nothing to publish or delete.
func (s PublishStatus) InSync() bool {
	return len(s.ChangedNotes) == 0 && len(s.UnpublishedNotes) == 0 && len(s.DeletedNotePaths) == 0
}
