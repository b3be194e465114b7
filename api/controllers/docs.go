package controllers

import (
	"fmt"
	"net/http"

	scalargo "github.com/bdpiprava/scalar-go"

	"github.com/angelmondragon/quickdeals/pkg/logger"
)

// Docs serves the Scalar API reference for the api.yaml found in specDir.
func Docs(specDir, title string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		html, err := scalargo.NewV2(
			scalargo.WithSpecDir(specDir),
			scalargo.WithMetaDataOpts(
				scalargo.WithTitle(title+" API"),
			),
		)
		if err != nil {
			if logg != nil {
				logg.Error(r.Context(), "docs.render", err)
			}
			http.Error(w, "api reference unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}
}
