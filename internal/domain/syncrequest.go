package domain

import "time"

// SyncRequestCategory partitions pending sync requests. At most one request
// is outstanding per (content id, category); new requests for the same pair
// coalesce into the existing row.
type SyncRequestCategory int

const (
	SyncCategoryBookmark SyncRequestCategory = iota
	SyncCategoryProgress
	SyncCategoryWatchStat
)

// String returns the storage name of the category
func (c SyncRequestCategory) String() string {
	switch c {
	case SyncCategoryBookmark:
		return "bookmark"
	case SyncCategoryProgress:
		return "progress"
	case SyncCategoryWatchStat:
		return "watchStat"
	default:
		return "unknown"
	}
}

// SyncRequestType is the concrete mutation awaiting transmission
type SyncRequestType int

const (
	SyncTypeCreateBookmark SyncRequestType = iota
	SyncTypeDeleteBookmark
	SyncTypeUpdateProgress
	SyncTypeMarkComplete
	SyncTypeRecordWatchTime
)

// String returns the storage name of the request type
func (t SyncRequestType) String() string {
	switch t {
	case SyncTypeCreateBookmark:
		return "createBookmark"
	case SyncTypeDeleteBookmark:
		return "deleteBookmark"
	case SyncTypeUpdateProgress:
		return "updateProgress"
	case SyncTypeMarkComplete:
		return "markComplete"
	case SyncTypeRecordWatchTime:
		return "recordWatchTime"
	default:
		return "unknown"
	}
}

// Category returns the coalescing category the request type belongs to
func (t SyncRequestType) Category() SyncRequestCategory {
	switch t {
	case SyncTypeCreateBookmark, SyncTypeDeleteBookmark:
		return SyncCategoryBookmark
	case SyncTypeRecordWatchTime:
		return SyncCategoryWatchStat
	default:
		return SyncCategoryProgress
	}
}

// SyncAttributeKind names a typed value attached to a sync request
type SyncAttributeKind int

const (
	SyncAttributeProgress SyncAttributeKind = iota
	SyncAttributeSeconds
)

// String returns the storage name of the attribute kind
func (k SyncAttributeKind) String() string {
	switch k {
	case SyncAttributeProgress:
		return "progress"
	case SyncAttributeSeconds:
		return "seconds"
	default:
		return "unknown"
	}
}

// SyncAttribute is one typed value carried by a sync request
type SyncAttribute struct {
	Kind  SyncAttributeKind
	Value int
}

// SyncRequest is a pending mutation in the outbox, awaiting transmission to
// the server. Watch-stat requests bucket by calendar hour: Date is truncated
// to the hour and the seconds attribute accumulates across coalesced calls
// within that hour.
type SyncRequest struct {
	ID         int64
	ContentID  int
	Category   SyncRequestCategory
	Type       SyncRequestType
	Date       time.Time
	Attributes []SyncAttribute
}

// Attribute returns the value of the first attribute of the given kind
func (r SyncRequest) Attribute(kind SyncAttributeKind) (int, bool) {
	for _, a := range r.Attributes {
		if a.Kind == kind {
			return a.Value, true
		}
	}
	return 0, false
}
