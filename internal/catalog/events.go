package catalog

import "fmt"

// Reason classifies a ChangeEvent.
type Reason int

const (
	// ReasonNone is carried by message and terminator events.
	ReasonNone Reason = iota
	// ReasonFolderInspected marks the start of an already known folder's walk.
	ReasonFolderInspected
	// ReasonFolderCreated marks the start of a newly catalogued folder's walk.
	ReasonFolderCreated
	// ReasonFolderDeleted reports a folder that vanished from disk.
	ReasonFolderDeleted
	ReasonAssetCreated
	ReasonAssetUpdated
	ReasonAssetDeleted
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "None"
	case ReasonFolderInspected:
		return "FolderInspected"
	case ReasonFolderCreated:
		return "FolderCreated"
	case ReasonFolderDeleted:
		return "FolderDeleted"
	case ReasonAssetCreated:
		return "AssetCreated"
	case ReasonAssetUpdated:
		return "AssetUpdated"
	case ReasonAssetDeleted:
		return "AssetDeleted"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// ChangeEvent is one unit of progress reported during a synchronization run.
type ChangeEvent struct {
	Asset  *Asset
	Folder *Folder
	// CataloguedAssets is the folder's asset set as of this step.
	CataloguedAssets []Asset
	Reason           Reason
	Message          string
	Err              error
}

// IsEmpty reports whether the event carries no payload. Empty events
// terminate the backup step and the run.
func (e ChangeEvent) IsEmpty() bool {
	return e.Asset == nil && e.Folder == nil && e.Message == "" && e.Err == nil && len(e.CataloguedAssets) == 0
}

// Callback receives events synchronously, in walk order.
type Callback func(ChangeEvent)

// Emit calls cb when it is non-nil.
func (cb Callback) Emit(e ChangeEvent) {
	if cb != nil {
		cb(e)
	}
}
