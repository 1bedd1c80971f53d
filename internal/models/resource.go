package models

import "gorm.io/datatypes"

// ResourceType names a reportable or reactable entity family.
type ResourceType string

const (
	ResourceTrade        ResourceType = "trade"
	ResourceForumPost    ResourceType = "forum_post"
	ResourceWishlistItem ResourceType = "wishlist_item"
	ResourceEvent        ResourceType = "event"
	ResourceComment      ResourceType = "comment"
	ResourceUser         ResourceType = "user"
)

// ReportableTypes lists every valid report target.
var ReportableTypes = []ResourceType{
	ResourceTrade, ResourceForumPost, ResourceWishlistItem, ResourceEvent, ResourceComment, ResourceUser,
}

// Valid reports whether t is a known resource family.
func (t ResourceType) Valid() bool {
	for _, candidate := range ReportableTypes {
		if t == candidate {
			return true
		}
	}
	return false
}

// Label is the human readable name used in error messages.
func (t ResourceType) Label() string {
	switch t {
	case ResourceTrade:
		return "Trade"
	case ResourceForumPost:
		return "Forum post"
	case ResourceWishlistItem:
		return "Wishlist item"
	case ResourceEvent:
		return "Event"
	case ResourceComment:
		return "Comment"
	case ResourceUser:
		return "User"
	default:
		return string(t)
	}
}

// Owned is implemented by every user-owned entity.
type Owned interface {
	OwnerID() uint
}

// Attached is implemented by resources that carry image references.
type Attached interface {
	Attachments() []string
}

// MaxImages is the attachment limit per resource.
const MaxImages = 5

// ImageList wraps attachment references for the JSON images column.
func ImageList(refs []string) datatypes.JSONSlice[string] {
	if refs == nil {
		refs = []string{}
	}
	return datatypes.NewJSONSlice(refs)
}
