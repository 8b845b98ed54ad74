// Package prompt builds the instruction sent to the model for a formula request.
package prompt

import (
	"fmt"

	"github.com/alnah/go-formula/internal/interpret"
	"github.com/alnah/go-formula/internal/lang"
)

// Builder renders prompts for a spreadsheet dialect and explanation language.
// The zero value targets Google Sheets with an English explanation.
type Builder struct {
	Dialect  Dialect
	Language lang.Language
}

// Build returns the prompt for description using the zero Builder.
func Build(description string) string {
	return Builder{}.Build(description)
}

// Build returns a deterministic prompt embedding description verbatim.
// Callers reject blank descriptions before building.
func (b Builder) Build(description string) string {
	product := b.Dialect.Product()
	p := fmt.Sprintf(formulaPrompt,
		product, description,
		interpret.FormulaMarker, product,
		interpret.ExplanationMarker)

	// Prompts are native English; other languages get an explicit instruction.
	if !b.Language.IsZero() && !b.Language.IsEnglish() {
		p += fmt.Sprintf("\n\nWrite the explanation in %s. Keep the %s headers and the formula unchanged.",
			b.Language.DisplayName(), interpret.FormulaMarker+" and "+interpret.ExplanationMarker)
	}
	return p
}

const formulaPrompt = `Generate a %s formula based on this requirement: %s
Format your response exactly like this, including the exact headers:

%s
[The exact %s formula, nothing else]

%s
[A clear, step-by-step explanation of how the formula works, with each step on a new line starting with a number and a dot]`
