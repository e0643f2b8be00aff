package model

// SyncState : lifecycle of the access code synchronization
type SyncState int32

const (
	SyncStateUninitialized SyncState = iota
	SyncStateSynced
)

func (s SyncState) String() string {
	switch s {
	case SyncStateSynced:
		return "synced"
	default:
		return "uninitialized"
	}
}
