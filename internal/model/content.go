package model

import "strings"

// Group is one category of content. Every group is backed by its own table
// with an identical shape, so ids and slugs are only unique within a group.
type Group struct {
	Key          string
	Table        string
	HasRegion    bool
	MegaRequired bool
}

var (
	GroupAsian      = Group{Key: "asian", Table: "content_asian", MegaRequired: true}
	GroupWestern    = Group{Key: "western", Table: "content_western", MegaRequired: true}
	GroupBanned     = Group{Key: "banned", Table: "content_banned", HasRegion: true, MegaRequired: true}
	GroupUnknown    = Group{Key: "unknown", Table: "content_unknown", HasRegion: true}
	GroupVipAsian   = Group{Key: "vip-asian", Table: "content_vip_asian", MegaRequired: true}
	GroupVipWestern = Group{Key: "vip-western", Table: "content_vip_western", MegaRequired: true}
	GroupVipBanned  = Group{Key: "vip-banned", Table: "content_vip_banned", HasRegion: true, MegaRequired: true}
	GroupVipUnknown = Group{Key: "vip-unknown", Table: "content_vip_unknown", HasRegion: true}
)

// Groups lists every content group in aggregation order.
var Groups = []Group{
	GroupAsian,
	GroupWestern,
	GroupBanned,
	GroupUnknown,
	GroupVipAsian,
	GroupVipWestern,
	GroupVipBanned,
	GroupVipUnknown,
}

func GroupByKey(key string) (Group, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, g := range Groups {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}

const (
	RegionAsian   = "asian"
	RegionWestern = "western"
)

// Content is a row of any content group.
type Content struct {
	ID                int64  `json:"id" db:"id"`
	Name              string `json:"name" db:"name"`
	Mega              string `json:"mega" db:"mega"`
	Mega2             string `json:"mega2" db:"mega2"`
	Pixeldrain        string `json:"pixeldrain" db:"pixeldrain"`
	AdmavenMega       string `json:"admavenMega" db:"admaven_mega"`
	AdmavenMega2      string `json:"admavenMega2" db:"admaven_mega2"`
	AdmavenPixeldrain string `json:"admavenPixeldrain" db:"admaven_pixeldrain"`
	Slug              string `json:"slug" db:"slug"`
	Category          string `json:"category" db:"category"`
	Region            string `json:"region,omitempty" db:"region"`
	Thumbnail         string `json:"thumbnail" db:"thumbnail"`
	PostDate          Time   `json:"postDate" db:"post_date"`
	CreatedAt         Time   `json:"createdAt" db:"created_at"`
	UpdatedAt         Time   `json:"updatedAt" db:"updated_at"`
	ContentType       string `json:"contentType,omitempty" db:"-"`
}

// ContentInput is the body of a create request.
type ContentInput struct {
	Name              string `json:"name" validate:"required,max=512"`
	Mega              string `json:"mega" validate:"max=2048"`
	Mega2             string `json:"mega2" validate:"max=2048"`
	Pixeldrain        string `json:"pixeldrain" validate:"max=2048"`
	AdmavenMega       string `json:"admavenMega" validate:"max=2048"`
	AdmavenMega2      string `json:"admavenMega2" validate:"max=2048"`
	AdmavenPixeldrain string `json:"admavenPixeldrain" validate:"max=2048"`
	Category          string `json:"category" validate:"max=255"`
	Region            string `json:"region" validate:"omitempty,oneof=asian western"`
	Thumbnail         string `json:"thumbnail" validate:"max=2048"`
	PostDate          *Time  `json:"postDate"`
}

// ContentPatch carries the fields of a partial update. Nil fields are left untouched.
type ContentPatch struct {
	Name              *string `json:"name" validate:"omitempty,min=1,max=512"`
	Mega              *string `json:"mega"`
	Mega2             *string `json:"mega2"`
	Pixeldrain        *string `json:"pixeldrain"`
	AdmavenMega       *string `json:"admavenMega"`
	AdmavenMega2      *string `json:"admavenMega2"`
	AdmavenPixeldrain *string `json:"admavenPixeldrain"`
	Slug              *string `json:"slug" validate:"omitempty,min=1,max=64"`
	Category          *string `json:"category"`
	Region            *string `json:"region" validate:"omitempty,oneof=asian western"`
	Thumbnail         *string `json:"thumbnail"`
	PostDate          *Time   `json:"postDate"`
}

func (p ContentPatch) Empty() bool {
	return p.Name == nil && p.Mega == nil && p.Mega2 == nil && p.Pixeldrain == nil &&
		p.AdmavenMega == nil && p.AdmavenMega2 == nil && p.AdmavenPixeldrain == nil &&
		p.Slug == nil && p.Category == nil && p.Region == nil && p.Thumbnail == nil && p.PostDate == nil
}

// Page is a paginated result with totals.
type Page[T any] struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
	Data       []T `json:"data"`
}

// Listing is a fixed-size page without totals.
type Listing[T any] struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
	Data    []T `json:"data"`
}

func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total-1)/perPage + 1
}
