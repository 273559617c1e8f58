package models

// MediaRef points at a stored blob. Either both fields are set or both are
// empty; the alias is what the blob store deletes by, the URL is public.
type MediaRef struct {
	URL   string `bson:"url,omitempty" json:"url,omitempty"`
	Alias string `bson:"alias,omitempty" json:"alias,omitempty"`
}

func (m MediaRef) IsZero() bool {
	return m.URL == "" && m.Alias == ""
}
