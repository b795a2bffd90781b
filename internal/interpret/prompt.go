package interpret

import (
	"fmt"
	"strings"

	"github.com/klytics/sheetsense/internal/command"
)

// BuildPrompt renders the system prompt: the operation catalog, the tabs of the
// active spreadsheet and the reply format.
func BuildPrompt(sheetNames []string, defaultSheet string) string {
	var b strings.Builder
	b.WriteString("You are a spreadsheet assistant. Translate the user's request into exactly one of these operations:\n\n")

	for i, spec := range command.Catalog() {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, spec.Operation, spec.Description)
		for _, p := range spec.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "   - %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description)
		}
	}

	b.WriteString("\n")
	if len(sheetNames) > 0 {
		quoted := make([]string, len(sheetNames))
		for i, n := range sheetNames {
			quoted[i] = fmt.Sprintf("%q", n)
		}
		fmt.Fprintf(&b, "Tabs in the spreadsheet: %s\n", strings.Join(quoted, ", "))
	} else {
		b.WriteString("The spreadsheet's tabs are unknown.\n")
	}
	switch {
	case defaultSheet != "":
		fmt.Fprintf(&b, "Active tab: %q. Omit \"sheet\" unless the user names a different tab.\n", defaultSheet)
	case len(sheetNames) > 0:
		fmt.Fprintf(&b, "Active tab: %q. Omit \"sheet\" unless the user names a different tab.\n", sheetNames[0])
	}

	b.WriteString(`
Cell addresses use A1 notation (column letters then row number, e.g. B7). Ranges are two cells joined by a colon (e.g. A1:C10).
For find_replace without a range, set "scope": "sheet" only when the user clearly asks to replace across the whole tab.

Reply with ONLY a JSON object, no prose and no code fences:
{"operation": "<name>", "params": {...}}

Example: {"operation": "write_cell", "params": {"cell": "A1", "value": "Hello"}}

If the request is unclear or cannot be done with these operations, reply:
{"error": "<short explanation>"}
`)
	return b.String()
}
