package analyzer

// IssueCode identifies a category of non-fatal analysis problem.
type IssueCode string

// IssueCode values.
const (
	// IssueParseFailure reports a statement the parser rejected.
	IssueParseFailure IssueCode = "parse_failure"
	// IssueUnresolvedReference reports an identifier that bound to nothing.
	IssueUnresolvedReference IssueCode = "unresolved_reference"
	// IssueAmbiguousReference reports an unqualified column matching more
	// than one source; the first binding in FROM order wins.
	IssueAmbiguousReference IssueCode = "ambiguous_reference"
	// IssueArityMismatch reports set-operation branches with different
	// column counts.
	IssueArityMismatch IssueCode = "arity_mismatch"
	// IssueUnknownTable reports an unqualified table absent from the
	// schema catalog.
	IssueUnknownTable IssueCode = "unknown_table"
	// IssueVirtualTableReplaced reports a virtual table registered over an
	// earlier one with the same name.
	IssueVirtualTableReplaced IssueCode = "virtual_table_replaced"
	// IssueUnsupportedExport reports a graph export format incompatible
	// with the graph's mode.
	IssueUnsupportedExport IssueCode = "unsupported_export"
)

// Issue is one diagnostic recorded during a run. Issues never abort the run;
// statement-fatal problems also land on the owning statement's Errors list.
// StatementIndex is -1 for issues that apply to the run as a whole.
type Issue struct {
	Code           IssueCode         `json:"code"`
	Message        string            `json:"message"`
	StatementIndex int               `json:"statement_index"`
	Context        map[string]string `json:"context,omitempty"`
}

// collector accumulates issues for one run. It is owned by the run and never
// shared across concurrent runs.
type collector struct {
	issues []Issue
}

// add records one issue. Context is supplied as alternating key/value pairs.
func (c *collector) add(code IssueCode, stmtIndex int, msg string, kv ...string) {
	issue := Issue{Code: code, Message: msg, StatementIndex: stmtIndex}
	if len(kv) > 0 {
		issue.Context = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			issue.Context[kv[i]] = kv[i+1]
		}
	}
	c.issues = append(c.issues, issue)
}
