package wish

import "strings"

// Wish is a single wish-list entry.
type Wish struct {
	// ID is assigned by SQLite on insert; 0 means not yet assigned.
	ID int64 `json:"id" yaml:"id"`

	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// IsNew reports whether the wish has not been persisted yet.
func (w Wish) IsNew() bool {
	return w.ID == 0
}

// Draft holds raw form input for a wish before it is persisted.
type Draft struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// Trimmed returns a copy of the draft with surrounding whitespace removed.
func (d Draft) Trimmed() Draft {
	return Draft{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
	}
}

// Wish builds a Wish from the trimmed draft values.
func (d Draft) Wish(id int64) Wish {
	t := d.Trimmed()
	return Wish{ID: id, Title: t.Title, Description: t.Description}
}

// DraftOf returns a draft pre-populated from an existing wish.
func DraftOf(w Wish) Draft {
	return Draft{Title: w.Title, Description: w.Description}
}
