package model

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestNewBlogPostDerivesSlugSummaryAndReadTime(testingT *testing.T) {
	body := "<p>" + strings.Repeat("word ", 450) + "</p>"
	post, err := NewBlogPost(BlogPostInput{
		Title: "Buying Your First Home!",
		Body:  body,
	})
	require.NoError(testingT, err)

	require.Equal(testingT, "buying-your-first-home", post.Slug)
	require.Equal(testingT, BlogPostStatusDraft, post.Status)
	require.Equal(testingT, 3, post.ReadTimeMinutes)
	require.LessOrEqual(testingT, len(post.Summary), blogPostSummaryMaxLength)
	require.True(testingT, strings.HasSuffix(post.Summary, "..."))
	require.NotContains(testingT, post.Summary, "<p>")
	require.LessOrEqual(testingT, len(post.MetaDescription), blogPostMetaDescriptionMaxLength)
}

func TestNewBlogPostKeepsExplicitFields(testingT *testing.T) {
	post, err := NewBlogPost(BlogPostInput{
		Title:           "Market Report",
		Slug:            "market-report-2025",
		Body:            "Short body.",
		Summary:         "A custom summary.",
		Author:          "Jordan",
		Status:          BlogPostStatusPublished,
		Featured:        true,
		MetaDescription: "Custom description.",
	})
	require.NoError(testingT, err)
	require.Equal(testingT, "market-report-2025", post.Slug)
	require.Equal(testingT, "A custom summary.", post.Summary)
	require.Equal(testingT, "Jordan", post.Author)
	require.Equal(testingT, "Custom description.", post.MetaDescription)
	require.True(testingT, post.Featured)
	require.True(testingT, post.IsPublished())
	require.Equal(testingT, minimumReadTimeMinutes, post.ReadTimeMinutes)
}

func TestNewBlogPostRejectsInvalidStatus(testingT *testing.T) {
	_, err := NewBlogPost(BlogPostInput{Title: "T", Body: "B", Status: "retired"})
	require.ErrorIs(testingT, err, ErrInvalidBlogPostStatus)
}

func TestNewBlogPostRejectsEmptyBody(testingT *testing.T) {
	_, err := NewBlogPost(BlogPostInput{Title: "Title only"})
	require.ErrorIs(testingT, err, ErrInvalidBlogPostBody)
}

func TestSlugify(testingT *testing.T) {
	require.Equal(testingT, "hello-world", Slugify("  Hello, World!  "))
	require.Equal(testingT, "a-b-c", Slugify("A---B___C"))
	require.Equal(testingT, "", Slugify("!!!"))
}

func TestDeriveSummaryShortBodyIsUntouched(testingT *testing.T) {
	require.Equal(testingT, "plain text", DeriveSummary("<b>plain</b> text", 300))
}

func TestNewBlogCategoryDerivesSlug(testingT *testing.T) {
	category, err := NewBlogCategory(BlogCategoryInput{Name: "Home Staging Tips"})
	require.NoError(testingT, err)
	require.Equal(testingT, "home-staging-tips", category.Slug)

	_, err = NewBlogCategory(BlogCategoryInput{Name: "   "})
	require.ErrorIs(testingT, err, ErrInvalidBlogCategoryName)
}

func TestDeriveSummaryCutsOnRuneBoundaries(testingT *testing.T) {
	body := strings.Repeat("á", 80)

	summary := DeriveSummary(body, 20)

	require.True(testingT, utf8.ValidString(summary))
	require.True(testingT, strings.HasSuffix(summary, "..."))
	require.Equal(testingT, 20, utf8.RuneCountInString(summary))
}
