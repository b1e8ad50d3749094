package domain

import "time"

// AssetKind enumerates stored artifact types.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// MediaAsset represents a generated binary artifact. The bytes live in the
// media store under StorageKey; jobs reference assets, they do not copy them.
type MediaAsset struct {
	ID          string
	JobID       string
	Kind        AssetKind
	StorageKey  string
	MIME        string
	Width       int
	Height      int
	DurationSec int
	Bytes       int64
	CreatedAt   time.Time
}
