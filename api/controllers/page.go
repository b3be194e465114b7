package controllers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/angelmondragon/quickdeals/api/validators"
	"github.com/angelmondragon/quickdeals/internal/session"
	"github.com/angelmondragon/quickdeals/internal/ui"
	pkgerrors "github.com/angelmondragon/quickdeals/pkg/errors"
	"github.com/angelmondragon/quickdeals/pkg/logger"
)

// PageRenderer writes the HTML page.
type PageRenderer interface {
	Render(w io.Writer, page ui.Page) error
}

// PageOptions carries the static parts of the page.
type PageOptions struct {
	Title     string
	MaxLength int
	Databases []string
}

func (o PageOptions) page() ui.Page {
	return ui.Page{Title: o.Title, MaxLength: o.MaxLength, Databases: o.Databases}
}

// PageShow renders the empty page.
func PageShow(renderer PageRenderer, opts PageOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writePage(w, r, renderer, http.StatusOK, opts.page(), logg)
	}
}

// PageSubmit handles the form post. Failures are shown on the page rather
// than as JSON errors; a busy session renders a notice with 409.
func PageSubmit(renderer PageRenderer, svc Asker, guard session.Guard, opts PageOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := opts.page()

		if err := r.ParseForm(); err != nil {
			page.Notice = "could not read the submitted form"
			writePage(w, r, renderer, http.StatusBadRequest, page, logg)
			return
		}
		question := r.PostFormValue("question")
		page.Question = validators.SanitizeString(question, 0)

		if err := validators.ValidateQuestion(question, opts.MaxLength); err != nil {
			page.Notice = noticeFor(err)
			writePage(w, r, renderer, http.StatusBadRequest, page, logg)
			return
		}

		res, err := ask(r.Context(), svc, guard, question)
		if err != nil {
			page.Notice = noticeFor(err)
			writePage(w, r, renderer, pkgerrors.MetadataFor(pkgerrors.As(err).Code()).HTTPStatus, page, logg)
			return
		}
		if !res.Skipped() {
			page.Result = &res
		}
		writePage(w, r, renderer, http.StatusOK, page, logg)
	}
}

func noticeFor(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err.Error()
	}
	if details, ok := typed.Details().(map[string]string); ok {
		if msg, ok := details["question"]; ok {
			return "Question " + msg
		}
	}
	return typed.Message()
}

func writePage(w http.ResponseWriter, r *http.Request, renderer PageRenderer, status int, page ui.Page, logg *logger.Logger) {
	var buf bytes.Buffer
	if err := renderer.Render(&buf, page); err != nil {
		if logg != nil {
			logg.Error(r.Context(), "page.render", err)
		}
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
