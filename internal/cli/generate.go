package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-formula/internal/controller"
)

// maxStdinBytes bounds a description read from stdin.
const maxStdinBytes = 64 << 10

// GenerateCmd creates the generate command.
// The env parameter provides injectable dependencies for testing.
func GenerateCmd(env *Env) *cobra.Command {
	var (
		flags       generationFlags
		copyFormula bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "generate [description...]",
		Short: "Generate a spreadsheet formula from a description",
		Long: `Generate a spreadsheet formula and a step-by-step explanation from a
plain-language description.

The description is taken from the arguments, or read from stdin when no
arguments are given. The formula is printed first, then one explanation
step per line.

Credentials are read from GEMINI_API_KEY (default provider) or OPENAI_API_KEY.`,
		Example: `  formula generate "sum of column A where column B is yes"
  formula generate --dialect excel --lang fr average of the last 7 rows of B
  echo "count non-empty cells in C" | formula generate --json
  formula generate --copy --provider openai largest value in column D`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, env, args, flags, copyFormula, asJSON)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&copyFormula, "copy", "c", false, "Copy the formula to the clipboard")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

// runGenerate drives one controller submission to completion.
func runGenerate(cmd *cobra.Command, env *Env, args []string, flags generationFlags, copyFormula, asJSON bool) error {
	ctx := cmd.Context()

	description, err := readDescription(env.Stdin, args)
	if err != nil {
		return err
	}

	s, err := newSetup(ctx, env, flags)
	if err != nil {
		return err
	}

	ctrl := controller.New(s.generator, env.Clipboard, controller.WithLogger(env.Logger))
	defer ctrl.Close()

	if !ctrl.Submit(ctx, description) {
		return ErrNoDescription
	}
	if !asJSON {
		fmt.Fprintf(env.Stderr, "Generating %s formula...\n", s.dialect.Product())
	}
	ctrl.Wait()

	snap := ctrl.Snapshot()
	if snap.State != controller.Success {
		return &GenerationError{Reason: snap.Reason, Err: snap.Err}
	}

	if asJSON {
		err = writeResultJSON(env.Stdout, snap.Result)
	} else {
		err = writeResult(env.Stdout, snap.Result)
	}
	if err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if copyFormula {
		if err := ctrl.Copy(); err != nil {
			fmt.Fprintf(env.Stderr, "Warning: %v\n", err)
		} else {
			fmt.Fprintln(env.Stderr, "Copied to clipboard.")
		}
	}
	return nil
}

// readDescription joins args, or reads stdin when there are none.
func readDescription(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if stdin == nil {
		return "", ErrNoDescription
	}

	data, err := io.ReadAll(io.LimitReader(stdin, maxStdinBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	description := strings.TrimSpace(string(data))
	if description == "" {
		return "", ErrNoDescription
	}
	return description, nil
}
