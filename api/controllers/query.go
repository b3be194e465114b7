package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/quickdeals/api/middleware"
	"github.com/angelmondragon/quickdeals/api/responses"
	"github.com/angelmondragon/quickdeals/api/validators"
	"github.com/angelmondragon/quickdeals/internal/agent"
	"github.com/angelmondragon/quickdeals/internal/session"
	pkgerrors "github.com/angelmondragon/quickdeals/pkg/errors"
	"github.com/angelmondragon/quickdeals/pkg/logger"
)

// Asker answers one question.
type Asker interface {
	Ask(ctx context.Context, question string) agent.Result
	Provider() string
}

type queryResponse struct {
	agent.Result
	DurationMS int64 `json:"duration_ms"`
}

// Query handles POST /api/v1/query.
func Query(svc Asker, guard session.Guard, maxLen int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload validators.QuestionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.ValidateQuestion(payload.Question, maxLen); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := ask(r.Context(), svc, guard, payload.Question)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if res.Failed() {
			code := pkgerrors.CodeDependency
			if agent.IsTimeout(res) {
				code = pkgerrors.CodeTimeout
			}
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(code, res.Err, "agent query failed").WithDetails(map[string]any{
					"provider": res.Provider,
					"error":    res.Error,
				}))
			return
		}

		responses.WriteSuccess(w, queryResponse{Result: res, DurationMS: res.DurationMS()})
	}
}

// ask runs the question under the caller's session. Empty questions never
// touch the session state.
func ask(ctx context.Context, svc Asker, guard session.Guard, question string) (agent.Result, error) {
	if strings.TrimSpace(question) == "" || guard == nil {
		return svc.Ask(ctx, question), nil
	}

	id := middleware.SessionIDFromContext(ctx)
	if id == "" {
		return agent.Result{}, pkgerrors.New(pkgerrors.CodeInternal, "session context missing")
	}

	var res agent.Result
	err := session.Run(ctx, guard, id, func(ctx context.Context) error {
		res = svc.Ask(ctx, question)
		return nil
	})
	switch {
	case errors.Is(err, session.ErrBusy):
		return agent.Result{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, err.Error())
	case err != nil:
		return agent.Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session state unavailable")
	}
	return res, nil
}
