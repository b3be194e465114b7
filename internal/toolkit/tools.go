package toolkit

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/quickdeals/internal/llm"
)

// Tool name suffixes; the full name is "<database>_<suffix>".
const (
	ToolListTables   = "sql_db_list_tables"
	ToolSchema       = "sql_db_schema"
	ToolQuery        = "sql_db_query"
	ToolQueryChecker = "sql_db_query_checker"

	ToolListDatabases = "list_databases"
)

// ToolName returns the tagged tool name for this database.
func (t *Toolkit) ToolName(suffix string) string {
	return t.name + "_" + suffix
}

// Tools returns the four SQL tools bound to this database.
func (t *Toolkit) Tools() []llm.Tool {
	scope := t.scope()
	return []llm.Tool{
		{
			Name:        t.ToolName(ToolListTables),
			Description: fmt.Sprintf("List the tables in the %s database (%s). Input is empty.", t.name, scope),
			Run: func(ctx context.Context, _ map[string]any) (string, error) {
				tables, err := t.ListTables(ctx)
				if err != nil {
					return "", err
				}
				return strings.Join(tables, ", "), nil
			},
		},
		{
			Name: t.ToolName(ToolSchema),
			Description: fmt.Sprintf("Get the schema and sample rows of tables in the %s database. "+
				"Call %s first to see which tables exist.", t.name, t.ToolName(ToolListTables)),
			Params: []llm.Param{
				{Name: "tables", Type: "string", Description: "comma-separated table names, e.g. product, product_price", Required: true},
			},
			Run: func(ctx context.Context, args map[string]any) (string, error) {
				raw, err := llm.StringArg(args, "tables")
				if err != nil {
					return "", err
				}
				return t.Schema(ctx, splitTables(raw))
			},
		},
		{
			Name: t.ToolName(ToolQuery),
			Description: fmt.Sprintf("Run a read-only SQLite SELECT against the %s database (%s) and return the rows. "+
				"On error, rewrite the query, check it with %s and try again.", t.name, scope, t.ToolName(ToolQueryChecker)),
			Params: []llm.Param{
				{Name: "query", Type: "string", Description: "a single SQLite SELECT statement", Required: true},
			},
			Run: func(ctx context.Context, args map[string]any) (string, error) {
				q, err := llm.StringArg(args, "query")
				if err != nil {
					return "", err
				}
				ctx = t.logg.WithDatabase(ctx, t.name)
				t.logg.Debug(t.logg.WithField(ctx, "query", q), "running agent query")
				return t.Query(ctx, q)
			},
		},
		{
			Name:        t.ToolName(ToolQueryChecker),
			Description: fmt.Sprintf("Check a SQLite query against the %s database before running it. Returns ok or the problem.", t.name),
			Params: []llm.Param{
				{Name: "query", Type: "string", Description: "the SQLite SELECT statement to check", Required: true},
			},
			Run: func(ctx context.Context, args map[string]any) (string, error) {
				q, err := llm.StringArg(args, "query")
				if err != nil {
					return "", err
				}
				return t.Check(ctx, q)
			},
		},
	}
}

func (t *Toolkit) scope() string {
	if len(t.platforms) == 0 {
		return "prices for every platform"
	}
	return "prices for " + strings.Join(t.platforms, ", ")
}

// ListDatabasesTool describes every database so the model can pick where to look.
func ListDatabasesTool(kits []*Toolkit) llm.Tool {
	return llm.Tool{
		Name:        ToolListDatabases,
		Description: "List the available databases and which platforms' prices each one holds. Input is empty.",
		Run: func(context.Context, map[string]any) (string, error) {
			var b strings.Builder
			for i, k := range kits {
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "%s: %s (tools prefixed %s_)", k.name, k.scope(), k.name)
			}
			return b.String(), nil
		},
	}
}

// AllTools returns list_databases followed by every database's tools.
func AllTools(kits []*Toolkit) []llm.Tool {
	tools := []llm.Tool{ListDatabasesTool(kits)}
	for _, k := range kits {
		tools = append(tools, k.Tools()...)
	}
	return tools
}
