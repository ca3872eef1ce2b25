package domain

// SnapshotVersion is bumped whenever the persisted layout changes shape.
const SnapshotVersion = 1

// Snapshot is the full durable state of the system: every auction plus the
// admin credentials. The store hands one to the persistence adapter after
// each accepted mutation.
type Snapshot struct {
	Version  int         `json:"version"`
	Auctions []*Auction  `json:"auctions"`
	Admin    Credentials `json:"admin"`
}

// Credentials holds the single admin account. The password is stored only
// as a bcrypt hash.
type Credentials struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}
