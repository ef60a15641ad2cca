package server

import (
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderRundownHTML converts a stored rundown's markdown-ish prose into
// HTML, for the `rundown view --html` CLI helper.
func RenderRundownHTML(text string) template.HTML {
	if text == "" {
		return template.HTML("")
	}

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})

	htmlBytes := markdown.ToHTML([]byte(text), mdParser, renderer)
	return template.HTML(htmlBytes)
}
