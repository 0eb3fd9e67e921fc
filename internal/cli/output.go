package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Output formats command results for the terminal
type Output struct {
	format string
}

// NewOutput creates an Output for the given format ("text" or "json")
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print renders a result value
func (o *Output) Print(v any) {
	if o.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}

	// Text mode: flatten the value through its JSON form into sorted
	// key: value lines
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Println(v)
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		fmt.Println(string(data))
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s: %v\n", k, fields[k])
	}
}
