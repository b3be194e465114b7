package agent

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/quickdeals/internal/toolkit"
)

// SystemPrompt instructs the model how to use the per-database SQL tools.
func SystemPrompt(kits []*toolkit.Toolkit, topK int) string {
	var dbs strings.Builder
	for _, k := range kits {
		scope := "all platforms"
		if p := k.Platforms(); len(p) > 0 {
			scope = strings.Join(p, ", ")
		}
		fmt.Fprintf(&dbs, "- %s (%s): tools %s_*\n", k.Name(), scope, k.Name())
	}

	return fmt.Sprintf(`You are an agent designed to answer questions about grocery prices on quick-commerce platforms by querying SQLite databases.

Available databases:
%s
Each database has the tables platform, product and product_price. Tools are bound to one database and are prefixed with its name; use %s to see what each database holds.

Given an input question, create a syntactically correct SQLite query, run it, then look at the results and return the answer.
Unless the user asks for a specific number of examples, limit your query to at most %d results. Order results by a relevant column to return the most useful examples.
Never query all columns of a table; only ask for the columns relevant to the question.
Always look at the tables and their schema before writing a query, and check every query with the query checker before running it. If a query fails, rewrite it and try again.
Never issue INSERT, UPDATE, DELETE, DROP or any other statement that changes data.
There are no cross-database joins: to compare platforms stored in different databases, query each database separately and combine the results yourself.
Prices are plain decimal amounts; discount_percent is a whole number percentage; availability is either 'In Stock' or 'Out of Stock'.
If the data cannot answer the question, say "I don't know".`, dbs.String(), toolkit.ToolListDatabases, topK)
}
