package wish

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/wishlist/internal/errors"
)

func TestDraft_Wish_Trims(t *testing.T) {
	d := Draft{Title: "  Nvidia RTX 4090 ", Description: "\tA powerful GPU from Nvidia\n"}

	w := d.Wish(0)
	assert.Equal(t, int64(0), w.ID)
	assert.True(t, w.IsNew())
	assert.Equal(t, "Nvidia RTX 4090", w.Title)
	assert.Equal(t, "A powerful GPU from Nvidia", w.Description)

	w = d.Wish(7)
	assert.False(t, w.IsNew())
	assert.Equal(t, int64(7), w.ID)
}

func TestDraftOf(t *testing.T) {
	d := DraftOf(Wish{ID: 3, Title: "Bike", Description: "Red"})
	assert.Equal(t, Draft{Title: "Bike", Description: "Red"}, d)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		wantErr bool
		field   string
		msg     string
	}{
		{name: "valid", draft: Draft{Title: "Bike"}},
		{name: "valid with description", draft: Draft{Title: "Bike", Description: "Red"}},
		{name: "empty title", draft: Draft{}, wantErr: true, field: "title", msg: MsgTitleRequired},
		{name: "whitespace title", draft: Draft{Title: "  \t\n "}, wantErr: true, field: "title", msg: MsgTitleRequired},
		{name: "title too long", draft: Draft{Title: strings.Repeat("x", 201)}, wantErr: true, field: "title", msg: "title must be at most 200 characters"},
		{name: "title at limit", draft: Draft{Title: strings.Repeat("é", 200)}},
		{name: "description too long", draft: Draft{Title: "x", Description: strings.Repeat("d", 2001)}, wantErr: true, field: "description", msg: "description must be at most 2000 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.draft)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, errors.Is(err, errors.ErrValidationFailed))

			wErr := errors.As(err)
			assert.Equal(t, tt.msg, wErr.Message)
			assert.Equal(t, tt.field, wErr.Details["field"])
		})
	}
}
