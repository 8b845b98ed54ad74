package interpret

// Function exports for unit testing internal logic.
var (
	Split        = split
	CleanFormula = cleanFormula
)
