// ABOUTME: Canned agent transcripts the stub server plays back over SSE or websocket.
// ABOUTME: Each action pairs a trace event with the delay to wait before sending it.
package stub

import (
	"fmt"
	"time"

	"github.com/2389-research/tusk/protocol"
)

// Action is a single scripted emission. Delay is how long the server
// waits before sending Event.
type Action struct {
	Delay time.Duration
	Event protocol.Event
}

// Script is a canned agent run. The stub replays the same actions for
// every question it receives.
type Script struct {
	Name    string
	Actions []Action
}

// Instant returns a copy of the script with all delays removed. Tests
// use it to play transcripts back without waiting.
func (s Script) Instant() Script {
	out := Script{Name: s.Name, Actions: make([]Action, len(s.Actions))}
	for i, a := range s.Actions {
		out.Actions[i] = Action{Event: a.Event}
	}
	return out
}

// DataAnalysisScript is the default transcript: a SQL exploration, a
// Python chart, and a delegated schema sweep, ending in a markdown
// answer.
func DataAnalysisScript() Script {
	return Script{
		Name: "data-analysis",
		Actions: []Action{
			{300 * time.Millisecond, protocol.Thinking{Content: "The question is about monthly revenue. I should look at the orders schema before writing the query."}},
			{250 * time.Millisecond, protocol.ToolCall{Step: 1, ToolName: "execute_sql", Args: mustArgs("query", "SELECT name FROM sqlite_master WHERE type='table'")}},
			{400 * time.Millisecond, protocol.ToolResult{Step: 1, ToolName: "execute_sql", Result: "orders\ncustomers\nproducts"}},
			{300 * time.Millisecond, protocol.ToolCall{Step: 2, ToolName: "execute_sql", Args: mustArgs("query", "SELECT strftime('%Y-%m', created_at) AS month, SUM(total) AS revenue FROM orders GROUP BY month ORDER BY month")}},
			{500 * time.Millisecond, protocol.ToolResult{Step: 2, ToolName: "execute_sql", Result: "2026-01|48210.55\n2026-02|51984.20\n2026-03|61042.75"}},
			{300 * time.Millisecond, protocol.ToolCall{Step: 3, ToolName: "execute_python_safe", Args: mustArgs("code", "plot_bar(months, revenue, title='Revenue by month')")}},
			{600 * time.Millisecond, protocol.ToolResult{Step: 3, ToolName: "execute_python_safe", Result: "saved chart to revenue_by_month.png"}},
			{300 * time.Millisecond, protocol.ToolCall{Step: 4, ToolName: "task", Args: mustArgs("description", "Collect column statistics for every table")}},
			{250 * time.Millisecond, protocol.SubagentToolCall{SubagentName: "data-collector", Step: 1, ToolName: "list_tables", Args: mustArgs()}},
			{300 * time.Millisecond, protocol.SubagentToolResult{SubagentName: "data-collector", Step: 1, Result: "orders, customers, products"}},
			{250 * time.Millisecond, protocol.SubagentToolCall{SubagentName: "data-collector", Step: 2, ToolName: "describe_table", Args: mustArgs("table", "orders")}},
			{300 * time.Millisecond, protocol.SubagentToolResult{SubagentName: "data-collector", Step: 2, Result: "id INTEGER, customer_id INTEGER, total REAL, created_at TEXT"}},
			{300 * time.Millisecond, protocol.ToolResult{Step: 4, ToolName: "task", Result: "Collected statistics for 3 tables"}},
			{400 * time.Millisecond, protocol.Message{Content: "Revenue is growing month over month:\n\n| Month | Revenue |\n|-------|---------|\n| 2026-01 | $48,210.55 |\n| 2026-02 | $51,984.20 |\n| 2026-03 | $61,042.75 |\n\nMarch is up **17.4%** over February. The chart is saved as `revenue_by_month.png`."}},
			{100 * time.Millisecond, protocol.Done{}},
		},
	}
}

// FailureScript ends with an agent error instead of an answer.
func FailureScript() Script {
	return Script{
		Name: "failure",
		Actions: []Action{
			{200 * time.Millisecond, protocol.Thinking{Content: "Checking the orders table."}},
			{200 * time.Millisecond, protocol.ToolCall{Step: 1, ToolName: "execute_sql", Args: mustArgs("query", "SELECT COUNT(*) FROM orders")}},
			{300 * time.Millisecond, protocol.ErrorEvent{Reason: "database is locked"}},
		},
	}
}

// ConfirmationScript asks for approval before answering. The stub does
// not gate playback on the decision; it exists to exercise the prompt
// and reply paths.
func ConfirmationScript() Script {
	return Script{
		Name: "confirmation",
		Actions: []Action{
			{200 * time.Millisecond, protocol.Thinking{Content: "This query modifies data, so I should ask first."}},
			{200 * time.Millisecond, protocol.ConfirmationRequest{ID: "confirm-1", Prompt: "Run UPDATE orders SET status='archived' WHERE created_at < '2025-01-01'?"}},
			{300 * time.Millisecond, protocol.Message{Content: "Archived 112 orders."}},
			{100 * time.Millisecond, protocol.Done{}},
		},
	}
}

func mustArgs(pairs ...any) protocol.Args {
	if len(pairs)%2 != 0 {
		panic("mustArgs: odd number of arguments")
	}
	var a protocol.Args
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("mustArgs: name %v is not a string", pairs[i]))
		}
		if err := a.Set(name, pairs[i+1]); err != nil {
			panic(fmt.Sprintf("mustArgs: %v", err))
		}
	}
	return a
}
