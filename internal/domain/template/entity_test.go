package template

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
)

func validTemplate() *Template {
	return &Template{
		ID:      "tmpl-1",
		OwnerID: "user-1",
		Title:   "Delivery note",
		Body:    "Hi {{client_name}}, your files are attached.",
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validTemplate().Validate())

	blankTitle := validTemplate()
	blankTitle.Title = "   "
	assert.True(t, errors.IsCode(blankTitle.Validate(), errors.CodeTemplateInvalid))

	longTitle := validTemplate()
	longTitle.Title = strings.Repeat("x", 201)
	assert.Error(t, longTitle.Validate())

	blankBody := validTemplate()
	blankBody.Body = ""
	assert.Error(t, blankBody.Validate())

	badRating := validTemplate()
	r := 5.5
	badRating.SuccessRating = &r
	assert.Error(t, badRating.Validate())
}

func TestNormalizeKeywords(t *testing.T) {
	tpl := validTemplate()
	tpl.MatchingKeywords = []string{"Logo", "  vector ", "logo", "", "Brand"}
	tpl.NormalizeKeywords()
	assert.Equal(t, []string{"logo", "vector", "brand"}, tpl.MatchingKeywords)

	// No-op on empty.
	empty := validTemplate()
	empty.NormalizeKeywords()
	assert.Empty(t, empty.MatchingKeywords)
}

func TestIsCurated(t *testing.T) {
	tpl := validTemplate()
	assert.False(t, tpl.IsCurated())
	tpl.OwnerID = ""
	assert.True(t, tpl.IsCurated())
}

func TestCopyForOwner(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := 4.0
	curated := &Template{
		ID:               "lib-1",
		Title:            "Starter welcome",
		Body:             "Welcome, {{client_name}}!",
		Category:         "onboarding",
		MatchingKeywords: []string{"welcome"},
		UsageCount:       120,
		SuccessRating:    &r,
	}

	clone := curated.CopyForOwner("user-7", now)

	assert.NotEqual(t, curated.ID, clone.ID)
	assert.EqualValues(t, "user-7", clone.OwnerID)
	assert.Equal(t, curated.Body, clone.Body)
	assert.Zero(t, clone.UsageCount)
	assert.Nil(t, clone.SuccessRating)
	assert.Equal(t, now, clone.CreatedAt)

	// Slices are deep-copied; mutating the clone leaves the library row alone.
	clone.MatchingKeywords[0] = "changed"
	assert.Equal(t, "welcome", curated.MatchingKeywords[0])
}
