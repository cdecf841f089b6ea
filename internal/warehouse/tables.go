package warehouse

// ColumnType is the logical column type shared by all tabular sinks.
type ColumnType string

const (
	String  ColumnType = "STRING"
	Date    ColumnType = "DATE"
	Boolean ColumnType = "BOOLEAN"
	Integer ColumnType = "INTEGER"
)

// Column is one table column. Only the chat editor is nullable.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Table is a fixed table layout.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames lists the column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

var (
	CompletionsTable = Table{
		Name: "code_completions",
		Columns: []Column{
			{Name: "date", Type: Date},
			{Name: "editor", Type: String},
			{Name: "model", Type: String},
			{Name: "is_custom_model", Type: Boolean},
			{Name: "language", Type: String},
			{Name: "total_engaged_users", Type: Integer},
			{Name: "total_code_acceptances", Type: Integer},
			{Name: "total_code_suggestions", Type: Integer},
			{Name: "total_code_lines_accepted", Type: Integer},
			{Name: "total_code_lines_suggested", Type: Integer},
		},
	}

	ChatsTable = Table{
		Name: "chats",
		Columns: []Column{
			{Name: "date", Type: Date},
			{Name: "chat_type", Type: String},
			{Name: "editor", Type: String, Nullable: true},
			{Name: "model", Type: String},
			{Name: "is_custom_model", Type: Boolean},
			{Name: "total_chats", Type: Integer},
			{Name: "total_engaged_users", Type: Integer},
			{Name: "total_chat_copy_events", Type: Integer},
			{Name: "total_chat_insertion_events", Type: Integer},
		},
	}

	PullRequestsTable = Table{
		Name: "pull_request_summaries",
		Columns: []Column{
			{Name: "date", Type: Date},
			{Name: "repository", Type: String},
			{Name: "model", Type: String},
			{Name: "is_custom_model", Type: Boolean},
			{Name: "total_engaged_users", Type: Integer},
			{Name: "total_pr_summaries_created", Type: Integer},
		},
	}
)

// Tables returns the layouts a sink manages for the given options.
func Tables(opts Options) []Table {
	tables := []Table{CompletionsTable, ChatsTable}
	if opts.WithPullRequests {
		tables = append(tables, PullRequestsTable)
	}
	return tables
}
