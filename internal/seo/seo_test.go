package seo

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaqqye/realty_backend/internal/property"
)

func TestParseCopy(t *testing.T) {
	long := strings.Repeat("x", 80)
	text := "```json\n{\"meta_title\":\"" + long + "\",\"meta_description\":\"Homes in Austin\",\"h1\":\" Austin \",\"content\":\"<p>Hi</p>\",\"keywords\":[\"austin homes\"]}\n```"

	c, err := ParseCopy(text)
	require.NoError(t, err)
	assert.Len(t, []rune(c.MetaTitle), MaxTitleRunes)
	assert.Equal(t, "Homes in Austin", c.MetaDescription)
	assert.Equal(t, "Austin", c.H1)
	assert.Equal(t, []string{"austin homes"}, c.Keywords)
}

func TestParseCopyDescriptionLimitCountsRunes(t *testing.T) {
	desc := strings.Repeat("é", 200)
	c, err := ParseCopy(`{"meta_description":"` + desc + `"}`)
	require.NoError(t, err)
	assert.Len(t, []rune(c.MetaDescription), MaxDescriptionRunes)
}

func TestParseCopyErrors(t *testing.T) {
	_, err := ParseCopy("  ")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = ParseCopy("not json")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	r := Request{Topic: "Lakefront condos"}
	require.NoError(t, r.Validate())
	assert.Equal(t, KindPage, r.Kind)
	assert.NotEmpty(t, r.Tone)

	assert.Error(t, (&Request{Kind: "page"}).Validate())
	assert.Error(t, (&Request{Kind: "listing"}).Validate())
	assert.Error(t, (&Request{Kind: "tweet", Topic: "x"}).Validate())
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(Request{
		Kind:     KindListing,
		Tone:     "upbeat",
		Keywords: []string{"lake view", "garage"},
		Listing: &property.Property{
			Address:        "12 Lake Dr, Austin, TX 78701",
			PriceFormatted: "$450,000",
			Beds:           3,
			Baths:          2.5,
			Sqft:           1800,
		},
	})
	assert.Contains(t, p, "12 Lake Dr, Austin, TX 78701")
	assert.Contains(t, p, "Price: $450,000. Beds: 3. Baths: 2.5. Square feet: 1800.")
	assert.Contains(t, p, "Target keywords: lake view, garage.")
	assert.Contains(t, p, "Tone: upbeat.")

	p = BuildPrompt(Request{Kind: KindNeighborhood, Topic: "Mueller", City: "Austin", Tone: "calm"})
	assert.Contains(t, p, "neighborhood guide page about Mueller in Austin")
}

func TestGenAIGeneratorNotConfigured(t *testing.T) {
	_, err := NewGenAIGenerator(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	var g *GenAIGenerator
	_, err = g.Generate(context.Background(), Request{Topic: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
