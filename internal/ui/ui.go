package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/angelmondragon/quickdeals/internal/agent"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is everything the single page can show.
type Page struct {
	Title     string
	Question  string
	MaxLength int
	Databases []string
	Result    *agent.Result

	// Notice is a message shown instead of a result, e.g. a busy session.
	Notice string

	AnswerHTML template.HTML
}

// Renderer renders the page and converts markdown answers to HTML.
type Renderer struct {
	tmpl *template.Template
	md   goldmark.Markdown
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("index.html").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	return &Renderer{tmpl: tmpl, md: md}, nil
}

// Markdown converts an answer to HTML. Raw HTML in the answer is escaped.
func (r *Renderer) Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Render writes the page to w.
func (r *Renderer) Render(w io.Writer, page Page) error {
	if page.Result != nil && page.Result.Answer != "" && page.AnswerHTML == "" {
		rendered, err := r.Markdown(page.Result.Answer)
		if err != nil {
			rendered = template.HTML(template.HTMLEscapeString(page.Result.Answer))
		}
		page.AnswerHTML = rendered
	}
	return r.tmpl.ExecuteTemplate(w, "index.html", page)
}
