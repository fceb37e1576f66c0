package ledger

// Actor identifies who is performing an operation. Admin is resolved by the
// discord layer (configured admin role or the ManageGuild permission bit)
// before the action reaches the ledgers.
type Actor struct {
	ID    string
	Admin bool
}

// MayActOn reports whether the actor may mutate a record owned by ownerID.
func (a Actor) MayActOn(ownerID string) bool {
	return a.Admin || a.ID == ownerID
}
