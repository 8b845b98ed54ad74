// Package interpret turns a model completion into a formula and its explanation.
//
// The completion is expected to carry two labeled sections:
//
//	FORMULA:
//	=SUM(A:A)
//
//	EXPLANATION:
//	1. Adds every value in column A.
//
// Parsing is all-or-nothing: either both sections are found and non-blank,
// or ErrMalformedResponse is returned.
package interpret

import (
	"fmt"
	"strings"
)

// Section markers. The prompt package instructs the model to use these.
const (
	FormulaMarker     = "FORMULA:"
	ExplanationMarker = "EXPLANATION:"
)

// wrapChars are stripped once from each end of the formula.
const wrapChars = "`'"

// Result is a successfully interpreted completion.
// Both fields are non-empty.
type Result struct {
	Formula     string
	Explanation string
}

// IsZero returns true if r holds no result.
func (r Result) IsZero() bool {
	return r.Formula == "" && r.Explanation == ""
}

// Steps returns the explanation split into lines, one step per line.
// Lines are returned verbatim and in order, blank ones included.
// Both "\n" and "\r\n" end a line.
func (r Result) Steps() []string {
	if r.Explanation == "" {
		return nil
	}
	lines := strings.Split(r.Explanation, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Interpret extracts the formula and explanation from raw.
//
// The formula span runs from the first FORMULA: marker to the first
// EXPLANATION: marker that follows it. The explanation span runs from there
// to the end of raw, so markers repeated inside the explanation are plain text.
func Interpret(raw string) (Result, error) {
	formulaSpan, explanationSpan, err := split(raw)
	if err != nil {
		return Result{}, err
	}

	formula := cleanFormula(formulaSpan)
	if formula == "" {
		return Result{}, fmt.Errorf("empty formula section: %w", ErrMalformedResponse)
	}

	explanation := strings.TrimSpace(explanationSpan)
	if explanation == "" {
		return Result{}, fmt.Errorf("empty explanation section: %w", ErrMalformedResponse)
	}

	return Result{Formula: formula, Explanation: explanation}, nil
}

// split locates both markers in order and returns the raw spans after each.
func split(raw string) (formula, explanation string, err error) {
	start := strings.Index(raw, FormulaMarker)
	if start == -1 {
		return "", "", fmt.Errorf("missing %s marker: %w", FormulaMarker, ErrMalformedResponse)
	}
	rest := raw[start+len(FormulaMarker):]

	end := strings.Index(rest, ExplanationMarker)
	if end == -1 {
		return "", "", fmt.Errorf("missing %s marker after %s: %w",
			ExplanationMarker, FormulaMarker, ErrMalformedResponse)
	}

	return rest[:end], rest[end+len(ExplanationMarker):], nil
}

// cleanFormula trims the span and removes at most one wrapping backtick or
// single quote on each side. Interior characters are left alone.
func cleanFormula(span string) string {
	f := strings.TrimSpace(span)
	if f != "" && strings.ContainsRune(wrapChars, rune(f[0])) {
		f = f[1:]
	}
	if f != "" && strings.ContainsRune(wrapChars, rune(f[len(f)-1])) {
		f = f[:len(f)-1]
	}
	return strings.TrimSpace(f)
}
