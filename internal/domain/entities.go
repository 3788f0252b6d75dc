package domain

import (
	"fmt"
	"time"
)

// ContentType distinguishes the kinds of content the catalog serves
type ContentType int

const (
	ContentTypeCollection ContentType = iota
	ContentTypeEpisode
	ContentTypeScreencast
	ContentTypeArticle
	ContentTypeProduct
)

// String returns the wire name of the content type
func (t ContentType) String() string {
	switch t {
	case ContentTypeCollection:
		return "collection"
	case ContentTypeEpisode:
		return "episode"
	case ContentTypeScreencast:
		return "screencast"
	case ContentTypeArticle:
		return "article"
	case ContentTypeProduct:
		return "product"
	default:
		return "unknown"
	}
}

// ParseContentType converts a wire name back into a ContentType
func ParseContentType(s string) (ContentType, error) {
	switch s {
	case "collection":
		return ContentTypeCollection, nil
	case "episode":
		return ContentTypeEpisode, nil
	case "screencast":
		return ContentTypeScreencast, nil
	case "article":
		return ContentTypeArticle, nil
	case "product":
		return ContentTypeProduct, nil
	default:
		return 0, fmt.Errorf("unknown content type %q", s)
	}
}

// Difficulty is the declared skill level of a piece of content
type Difficulty int

const (
	DifficultyAllLevels Difficulty = iota
	DifficultyBeginner
	DifficultyIntermediate
	DifficultyAdvanced
)

// String returns a human-readable representation of the difficulty
func (d Difficulty) String() string {
	switch d {
	case DifficultyAllLevels:
		return "All Levels"
	case DifficultyBeginner:
		return "Beginner"
	case DifficultyIntermediate:
		return "Intermediate"
	case DifficultyAdvanced:
		return "Advanced"
	default:
		return "Unknown"
	}
}

// Content is a single catalog item: a collection (course), an episode within
// a collection, a standalone screencast, an article or a product.
type Content struct {
	ID                   int
	URI                  string
	Name                 string
	Description          string // HTML
	DescriptionPlainText string
	ReleasedAt           time.Time
	Free                 bool
	Professional         bool
	Difficulty           Difficulty
	ContentType          ContentType
	Duration             int // seconds
	VideoIdentifier      *int
	CardArtworkURL       *string
	TechnologyTriple     string
	ContributorString    string

	// Set only for contents that live inside a group of a collection.
	// Partial server responses sometimes omit group membership; the cache
	// merge keeps the previously known GroupID when the incoming one is nil.
	GroupID *int
	Ordinal *int
}

// Equal reports whether two contents are the same record. Release dates are
// compared at second precision; servers round-trip timestamps with varying
// sub-second accuracy.
func (c Content) Equal(o Content) bool {
	if !c.ReleasedAt.Truncate(time.Second).Equal(o.ReleasedAt.Truncate(time.Second)) {
		return false
	}
	return c.ID == o.ID &&
		c.URI == o.URI &&
		c.Name == o.Name &&
		c.Description == o.Description &&
		c.DescriptionPlainText == o.DescriptionPlainText &&
		c.Free == o.Free &&
		c.Professional == o.Professional &&
		c.Difficulty == o.Difficulty &&
		c.ContentType == o.ContentType &&
		c.Duration == o.Duration &&
		equalIntPtr(c.VideoIdentifier, o.VideoIdentifier) &&
		equalStringPtr(c.CardArtworkURL, o.CardArtworkURL) &&
		c.TechnologyTriple == o.TechnologyTriple &&
		c.ContributorString == o.ContributorString &&
		equalIntPtr(c.GroupID, o.GroupID) &&
		equalIntPtr(c.Ordinal, o.Ordinal)
}

// FormattedDuration returns the duration in a human-readable format
func (c Content) FormattedDuration() string {
	h := c.Duration / 3600
	mins := (c.Duration % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// Group batches a contiguous run of child contents (typically episodes)
// under one heading inside a collection.
type Group struct {
	ID          int
	Name        string
	Description *string
	Ordinal     int
	ContentID   int // owning collection
}

// Bookmark marks a content for later. At most one live bookmark exists per
// content id.
type Bookmark struct {
	ID        int
	CreatedAt time.Time
	ContentID int
}

// FinishedThreshold is the fraction of a progression's target past which the
// content counts as finished. Near-complete viewing is treated as done; both
// completion display and playlist resolution share this constant.
const FinishedThreshold = 0.9

// Progression records how far through a content the user is. At most one
// progression exists per content id.
type Progression struct {
	ID        int
	Target    int // seconds
	Progress  int // seconds
	CreatedAt time.Time
	UpdatedAt time.Time
	ContentID int
}

// Finished reports whether the progression has crossed the completion
// threshold.
func (p Progression) Finished() bool {
	if p.Target <= 0 {
		return false
	}
	return float64(p.Progress)/float64(p.Target) > FinishedThreshold
}

// PercentComplete returns completion as a 0-100 value, clamped.
func (p Progression) PercentComplete() float64 {
	if p.Target <= 0 {
		return 0
	}
	pct := float64(p.Progress) / float64(p.Target) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// ContentDomain is a join row tying a content to a domain (platform track).
// It has no identity beyond the pair.
type ContentDomain struct {
	ContentID int
	DomainID  int
}

// ContentCategory is a join row tying a content to a category.
type ContentCategory struct {
	ContentID  int
	CategoryID int
}

// Domain is a platform track ("iOS & Swift", "Android & Kotlin", ...)
type Domain struct {
	ID      int
	Name    string
	Slug    string
	Ordinal int
}

// Category is a topic tag attached to contents
type Category struct {
	ID      int
	Name    string
	Ordinal int
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
