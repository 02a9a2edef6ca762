package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

func TestRegistry_Dispatch(t *testing.T) {
	r := Default()

	assert.IsType(t, &PlainText{}, r.For("notes.txt"))
	assert.IsType(t, &PlainText{}, r.For("NOTES.TXT"))
	assert.IsType(t, &Markdown{}, r.For("guide.md"))
	assert.IsType(t, &Markdown{}, r.For("guide.MARKDOWN"))
}

func TestRegistry_FallbackForUnknownExtension(t *testing.T) {
	r := Default()
	assert.IsType(t, &PlainText{}, r.For("data.xyz"))
	assert.IsType(t, &PlainText{}, r.For("no-extension"))
}

func TestRegistry_Parse(t *testing.T) {
	r := Default()
	ctx := context.Background()

	text, err := r.Parse(ctx, &domain.RawFile{
		Name:    "notes.txt",
		Content: []byte("line one\r\nline two"),
	})
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestRegistry_Parse_NilFile(t *testing.T) {
	r := Default()
	_, err := r.Parse(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPlainText_InvalidUTF8(t *testing.T) {
	p := NewPlainText()
	_, err := p.Parse(context.Background(), &domain.RawFile{
		Name:    "bad.txt",
		Content: []byte{0xff, 0xfe, 0x00},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestMarkdown_StripsFrontMatterAndHeadings(t *testing.T) {
	p := NewMarkdown()
	raw := &domain.RawFile{
		Name: "guide.md",
		Content: []byte(`---
title: Guide
---
# Heading

Body text stays.`),
	}

	text, err := p.Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.NotContains(t, text, "title: Guide")
	assert.NotContains(t, text, "#")
	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "Body text stays.")
}

func TestMarkdown_NoFrontMatter(t *testing.T) {
	p := NewMarkdown()
	text, err := p.Parse(context.Background(), &domain.RawFile{
		Name:    "plain.md",
		Content: []byte("just a paragraph"),
	})
	require.NoError(t, err)
	assert.Equal(t, "just a paragraph", text)
}
