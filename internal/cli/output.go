package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/alnah/go-formula/internal/interpret"
)

// resultJSON is the JSON shape shared by "generate --json" and the HTTP API.
type resultJSON struct {
	Formula     string   `json:"formula"`
	Explanation string   `json:"explanation"`
	Steps       []string `json:"steps"`
}

func newResultJSON(r interpret.Result) resultJSON {
	return resultJSON{
		Formula:     r.Formula,
		Explanation: r.Explanation,
		Steps:       r.Steps(),
	}
}

// writeResult prints the formula, a blank line, then one step per line.
func writeResult(w io.Writer, r interpret.Result) error {
	if _, err := fmt.Fprintln(w, r.Formula); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, step := range r.Steps() {
		if _, err := fmt.Fprintln(w, step); err != nil {
			return err
		}
	}
	return nil
}

// writeResultJSON prints r as indented JSON.
func writeResultJSON(w io.Writer, r interpret.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newResultJSON(r))
}
