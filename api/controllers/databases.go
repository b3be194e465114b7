package controllers

import (
	"net/http"

	"github.com/angelmondragon/quickdeals/api/responses"
	"github.com/angelmondragon/quickdeals/internal/registry"
)

// DatabaseLister exposes the opened databases.
type DatabaseLister interface {
	Databases() []*registry.Database
}

type databaseView struct {
	Name      string   `json:"name"`
	Platforms []string `json:"platforms"`
	Tools     []string `json:"tools"`
}

// ListDatabases reports every registered database, its platforms and the
// tool names the agent sees for it.
func ListDatabases(reg DatabaseLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbs := reg.Databases()
		out := make([]databaseView, 0, len(dbs))
		for _, d := range dbs {
			view := databaseView{Name: d.Name, Platforms: d.Platforms, Tools: []string{}}
			if view.Platforms == nil {
				view.Platforms = []string{}
			}
			if d.Toolkit != nil {
				for _, tool := range d.Toolkit.Tools() {
					view.Tools = append(view.Tools, tool.Name)
				}
			}
			out = append(out, view)
		}
		responses.WriteSuccess(w, out)
	}
}
