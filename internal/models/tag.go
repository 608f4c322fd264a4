package models

import "strings"

// Tag is a scoped label. Value is nil for scope-only tags. No two tags
// share the same (scope, value) pair.
type Tag struct {
	ID    int64   `json:"id"`
	Scope string  `json:"scope"`
	Value *string `json:"value,omitempty"`
}

// ParseTag parses a canonical label ("#scope" or "#scope/value") into an
// unsaved Tag. The leading '#' is optional; everything after the first
// '/' is the value.
func ParseTag(label string) Tag {
	label = strings.TrimPrefix(label, "#")
	scope, value, found := strings.Cut(label, "/")
	if !found {
		return Tag{Scope: scope}
	}
	return Tag{Scope: scope, Value: &value}
}

// String returns the canonical text form: "#scope" or "#scope/value".
func (t Tag) String() string {
	if t.Value == nil {
		return "#" + t.Scope
	}
	return "#" + t.Scope + "/" + *t.Value
}

// TagLink relates one tag to one meme. At most one link exists per
// (TagID, MemeID) pair.
type TagLink struct {
	ID     int64 `json:"id"`
	TagID  int64 `json:"tagId"`
	MemeID int64 `json:"memeId"`
}

// TagUsage is a tag label with its link count, used for suggestions.
type TagUsage struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
