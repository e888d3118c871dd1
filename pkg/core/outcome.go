package core

// ExecutionOutcome is the result of one execution attempt.
// Exactly one of the success or failure shapes is populated; values are
// not modified after the adapter returns them.
type ExecutionOutcome struct {
	ok      bool
	columns []string
	rows    [][]any
	status  string
	message string
}

// RowsOutcome is a successful row-returning execution.
func RowsOutcome(columns []string, rows [][]any) ExecutionOutcome {
	if columns == nil {
		columns = []string{}
	}
	if rows == nil {
		rows = [][]any{}
	}
	return ExecutionOutcome{ok: true, columns: columns, rows: rows}
}

// StatusOutcome is a successful non-query execution.
func StatusOutcome(status string) ExecutionOutcome {
	return ExecutionOutcome{ok: true, status: status}
}

// FailureOutcome is a failed execution carrying the backend message.
func FailureOutcome(message string) ExecutionOutcome {
	return ExecutionOutcome{message: message}
}

// Succeeded reports whether the statement executed.
func (o ExecutionOutcome) Succeeded() bool { return o.ok }

// HasRows reports whether the outcome carries a result set rather than a status.
func (o ExecutionOutcome) HasRows() bool { return o.ok && o.status == "" }

// Columns returns the result column names, in order.
func (o ExecutionOutcome) Columns() []string { return o.columns }

// Rows returns the result rows, in order.
func (o ExecutionOutcome) Rows() [][]any { return o.rows }

// Status returns the textual status of a non-query statement.
func (o ExecutionOutcome) Status() string { return o.status }

// Message returns the failure message.
func (o ExecutionOutcome) Message() string { return o.message }
