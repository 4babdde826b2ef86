package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/360techsys1/SalesAnalysis/internal/llm"
	"github.com/360techsys1/SalesAnalysis/internal/store"
)

// narratorPrompt keeps the oracle honest: every number in the answer must be
// traceable to the rows, forecasts must name their method and be labelled as
// estimates, and internals never surface.
const narratorPrompt = `
You are a senior enterprise analytics expert for a major ecommerce and fulfillment company in KSA (Saudi Arabia).

You ALWAYS follow these strict rules:

1. You do NOT invent arbitrary numbers. All numeric values must come either:
   - directly from "rows" (the JSON data provided), OR
   - from clear calculations based on those rows (sums, averages, growth rates, forecasts, etc.).

2. FORECASTING / PREDICTION:
   - When the user asks to PREDICT or FORECAST future metrics (e.g., "predict next 12 months based on last 12 months"),
     you ARE allowed to produce forecasted numbers.
   - These forecasts MUST be derived from the historical data in "rows" using simple, transparent methods such as:
       - average of last N periods,
       - year-over-year growth rate,
       - simple linear trend over time.
   - Always explain briefly which method you used.
   - Clearly label results as "estimates" or "projections", not guarantees.

3. If something truly cannot be computed from the data, explicitly say so.

4. If the dataset is empty, say that clearly and suggest what additional data, filters, or time range would help.

5. Provide clear, structured business insights for sales, operations, inventory, or courier performance:
   - totals, averages, counts
   - trends or comparisons
   - top/bottom performers
   - operational risks, bottlenecks, or anomalies
   - actionable recommendations when relevant

6. Never mention internal errors, SQL text, or database internals to the user.

7. Your tone is concise, professional, and easy to understand.
`

const emptyDataAnswer = "I could not find any matching records for those filters. " +
	"Please double-check the store, branch, or product names and the date range, and try again."

// Meta describes the executed query alongside its rows. Purely descriptive;
// it never influences execution.
type Meta struct {
	RowCount int    `json:"rowCount"`
	SQL      string `json:"sql"`
}

// Narrator turns result rows into a business answer. Empty data, entity
// ambiguity, and numeric projections are handled deterministically here so
// the guarantees hold whatever the oracle says.
type Narrator struct {
	provider llm.Provider
	logger   *log.Logger
}

// NewNarrator builds a Narrator.
func NewNarrator(provider llm.Provider) *Narrator {
	return &Narrator{provider: provider, logger: log.New(log.Writer(), "[NARRATOR] ", log.LstdFlags)}
}

// Narrate produces the final answer for an executed query.
func (n *Narrator) Narrate(ctx context.Context, question string, rows []store.Row, meta Meta) (string, error) {
	if len(rows) == 0 {
		return emptyDataAnswer, nil
	}

	forecast := wantsForecast(question)
	breakdown := wantsBreakdown(question)
	if forecast && !breakdown {
		if entities := distinctEntities(rows); len(entities) >= 2 {
			return disambiguationAnswer(entities), nil
		}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"question": question,
		"meta":     meta,
		"rows":     rows,
	})
	if err != nil {
		return "", fmt.Errorf("marshal narration payload: %w", err)
	}

	messages := []llm.Message{
		{Role: "system", Content: narratorPrompt},
		{Role: roleUser, Content: string(payload)},
	}
	answer, err := n.provider.Complete(ctx, messages, llm.Options{Temperature: 0.5, MaxTokens: 1200})
	if err != nil {
		return "", fmt.Errorf("narrate rows: %w", err)
	}

	// The appended projection pools every row into one series, so it is only
	// meaningful for a single entity. Per-entity breakdowns are left to the
	// oracle narration, which sees the rows grouped.
	if forecast && !breakdown && len(distinctEntities(rows)) < 2 {
		if proj, ok := project(rows); ok {
			answer = strings.TrimSpace(answer) + "\n\n" + proj.sentence()
		}
	}
	return answer, nil
}

// wantsForecast reports whether the question asks for a future projection.
func wantsForecast(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range []string{
		"forecast", "predict", "projection", "project the",
		"next month", "next quarter", "next year", "next week",
		"next 12", "next 6", "next 3", "upcoming", "coming months",
	} {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// wantsBreakdown reports whether the question explicitly asks for per-entity
// results, in which case multiple entity names in the rows are expected.
func wantsBreakdown(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range []string{
		"each ", "every ", " per ", "by store", "by branch", "by city",
		"by courier", "by product", "compare", "breakdown", "all stores",
		"all branches", "top ", "bottom ",
	} {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// distinctEntities scans name-like columns and returns the distinct values of
// the first such column (alphabetically) that holds more than one. Rows that
// were meant to describe a single store/branch but carry several names signal
// that a partial-match filter caught more than one entity.
func distinctEntities(rows []store.Row) []string {
	if len(rows) == 0 {
		return nil
	}
	var nameCols []string
	for col := range rows[0] {
		if strings.Contains(strings.ToLower(col), "name") {
			nameCols = append(nameCols, col)
		}
	}
	sort.Strings(nameCols)

	for _, col := range nameCols {
		seen := map[string]bool{}
		var values []string
		for _, row := range rows {
			s, ok := row[col].(string)
			if !ok || strings.TrimSpace(s) == "" {
				continue
			}
			// case-fold the key so "Sunset" and "SUNSET" from a
			// case-insensitive LIKE count as one entity
			key := strings.ToLower(s)
			if !seen[key] {
				seen[key] = true
				values = append(values, s)
			}
		}
		if len(values) >= 2 {
			return values
		}
	}
	return nil
}

func disambiguationAnswer(entities []string) string {
	if len(entities) > 5 {
		entities = entities[:5]
	}
	var b strings.Builder
	b.WriteString("Your question seems to refer to a single entity, but the data matches more than one:\n")
	for _, e := range entities {
		b.WriteString("- ")
		b.WriteString(e)
		b.WriteString("\n")
	}
	b.WriteString("\nI did not want to merge them into one forecast. Which one did you mean?")
	return b.String()
}

// projection is a deterministic forecast over one numeric column.
type projection struct {
	metric  string
	periods int
	next    float64
	average float64
	method  string
}

func (p projection) sentence() string {
	return fmt.Sprintf("Projected %s for the next period: approximately %s (%s over %d periods; recent average %s per period). "+
		"These figures are estimates derived from the historical data above, not guarantees.",
		p.metric, formatNumber(p.next), p.method, p.periods, formatNumber(p.average))
}

// project builds a numeric series from the rows, preferring amount-like
// columns, and extends it one period with a least-squares linear trend.
func project(rows []store.Row) (projection, bool) {
	col, ok := pickMetricColumn(rows)
	if !ok {
		return projection{}, false
	}

	var series []float64
	for _, row := range rows {
		if v, ok := toFloat(row[col]); ok {
			series = append(series, v)
		}
	}
	if len(series) == 0 {
		return projection{}, false
	}

	sum := 0.0
	for _, v := range series {
		sum += v
	}
	avg := sum / float64(len(series))

	if len(series) == 1 {
		return projection{metric: col, periods: 1, next: series[0], average: avg, method: "single-period average"}, true
	}

	// least-squares fit of value against period index
	n := float64(len(series))
	var sx, sy, sxx, sxy float64
	for i, v := range series {
		x := float64(i)
		sx += x
		sy += v
		sxx += x * x
		sxy += x * v
	}
	denom := n*sxx - sx*sx
	if denom == 0 {
		return projection{metric: col, periods: len(series), next: avg, average: avg, method: "historical average"}, true
	}
	slope := (n*sxy - sx*sy) / denom
	intercept := (sy - slope*sx) / n
	next := intercept + slope*n
	if next < 0 {
		next = 0
	}
	return projection{metric: col, periods: len(series), next: next, average: avg, method: "simple linear trend"}, true
}

// pickMetricColumn chooses the numeric column to project: amount-like names
// first, then count-like, then the alphabetically first numeric column.
func pickMetricColumn(rows []store.Row) (string, bool) {
	if len(rows) == 0 {
		return "", false
	}
	var numeric []string
	for col, v := range rows[0] {
		if _, ok := toFloat(v); ok {
			numeric = append(numeric, col)
		}
	}
	if len(numeric) == 0 {
		return "", false
	}
	sort.Strings(numeric)

	for _, pref := range []string{"total", "sales", "amount", "revenue"} {
		for _, col := range numeric {
			if strings.Contains(strings.ToLower(col), pref) {
				return col, true
			}
		}
	}
	for _, col := range numeric {
		if strings.Contains(strings.ToLower(col), "count") {
			return col, true
		}
	}
	return numeric[0], true
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
