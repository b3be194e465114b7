package toolkit

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/quickdeals/pkg/db"
	"github.com/angelmondragon/quickdeals/pkg/logger"
)

// hiddenTables are never shown to the model.
var hiddenTables = map[string]bool{
	"goose_db_version": true,
	"sqlite_sequence":  true,
}

// Options bounds what the tools return.
type Options struct {
	MaxRows    int
	SampleRows int
}

// Toolkit introspects and queries one database.
type Toolkit struct {
	name      string
	platforms []string
	client    *db.Client
	opts      Options
	logg      *logger.Logger
}

// New binds a toolkit to client. The client should be opened read-only.
func New(name string, platforms []string, client *db.Client, opts Options, logg *logger.Logger) *Toolkit {
	if opts.MaxRows <= 0 {
		opts.MaxRows = 50
	}
	if opts.SampleRows < 0 {
		opts.SampleRows = 0
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Toolkit{
		name:      name,
		platforms: append([]string(nil), platforms...),
		client:    client,
		opts:      opts,
		logg:      logg,
	}
}

// Name is the database name every tool is prefixed with.
func (t *Toolkit) Name() string { return t.name }

// Platforms lists the platforms whose prices this database carries; empty
// means all of them.
func (t *Toolkit) Platforms() []string { return append([]string(nil), t.platforms...) }

// ListTables returns user tables in name order.
func (t *Toolkit) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	err := t.client.Raw(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`).Scan(&names).Error
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	out := names[:0]
	for _, n := range names {
		if hiddenTables[n] || strings.HasPrefix(n, "sqlite_") {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Schema returns the CREATE statement and a few sample rows for each table.
func (t *Toolkit) Schema(ctx context.Context, tables []string) (string, error) {
	known, err := t.ListTables(ctx)
	if err != nil {
		return "", err
	}
	valid := make(map[string]bool, len(known))
	for _, k := range known {
		valid[k] = true
	}

	var missing []string
	for _, table := range tables {
		if !valid[table] {
			missing = append(missing, table)
		}
	}
	if len(tables) == 0 || len(missing) > 0 {
		return "", fmt.Errorf("unknown tables %v; valid tables are: %s", missing, strings.Join(known, ", "))
	}

	var b strings.Builder
	for i, table := range tables {
		if i > 0 {
			b.WriteString("\n\n")
		}
		var ddl string
		err := t.client.Raw(ctx, `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Row().Scan(&ddl)
		if err != nil {
			return "", fmt.Errorf("reading schema of %s: %w", table, err)
		}
		b.WriteString(strings.TrimSpace(ddl))

		if t.opts.SampleRows == 0 {
			continue
		}
		sample, err := t.run(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table), t.opts.SampleRows), t.opts.SampleRows)
		if err != nil {
			return "", fmt.Errorf("sampling %s: %w", table, err)
		}
		fmt.Fprintf(&b, "\n\n/*\n%d rows from %s table:\n%s\n*/", t.opts.SampleRows, table, sample)
	}
	return b.String(), nil
}

// Query runs a read-only statement and returns a tab-separated table.
func (t *Toolkit) Query(ctx context.Context, query string) (string, error) {
	q, err := CheckReadOnly(query)
	if err != nil {
		return "", err
	}
	out, err := t.run(ctx, q, t.opts.MaxRows)
	if err != nil {
		if db.IsReadOnly(err) {
			return "", fmt.Errorf("%w: %v", ErrNotReadOnly, err)
		}
		return "", err
	}
	return out, nil
}

// Check validates a query without running it: read-only guard plus a
// SQLite query plan.
func (t *Toolkit) Check(ctx context.Context, query string) (string, error) {
	q, err := CheckReadOnly(query)
	if err != nil {
		return "", err
	}
	if err := t.client.DB().WithContext(ctx).Exec("EXPLAIN QUERY PLAN " + q).Error; err != nil {
		return "", fmt.Errorf("query does not compile: %w", err)
	}
	return "ok: " + q, nil
}

func (t *Toolkit) run(ctx context.Context, query string, limit int) (string, error) {
	rows, err := t.client.Raw(ctx, query).Rows()
	if err != nil {
		return "", err
	}
	defer rows.Close()
	return formatRows(rows, limit)
}

func formatRows(rows *sql.Rows, limit int) (string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strings.Join(cols, "\t"))

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	n, truncated := 0, false
	for rows.Next() {
		if n == limit {
			truncated = true
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		b.WriteByte('\n')
		for i, v := range values {
			if i > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(formatValue(v))
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch {
	case n == 0:
		b.WriteString("\n(no rows)")
	case truncated:
		fmt.Fprintf(&b, "\n... truncated to %d rows", limit)
	}
	return b.String(), nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// splitTables parses a comma separated table list.
func splitTables(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
