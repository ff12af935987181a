package domain

// ChangeNotifier is told after any successful write by an owner so read-side
// caches can drop that owner's entries.
type ChangeNotifier interface {
	Changed(ownerID string)
}

type NopNotifier struct{}

func (NopNotifier) Changed(string) {}
