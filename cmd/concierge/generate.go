// cmd/concierge/generate.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"travel-concierge/internal/jobworker"
	"travel-concierge/internal/models"
	"travel-concierge/internal/orchestrator"
)

var (
	inputPath   string
	personaFlag string
	showEvents  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one itinerary and print the result as JSON",
	Long: `Reads a request document of the form
  {"requirements": {...}, "personaHint": {...}}
from --input (or stdin with "-") and writes the orchestration result to stdout.`,
	Example: `  concierge generate -i request.json
  cat request.json | concierge generate -i - --events`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "request file, or - for stdin")
	generateCmd.Flags().StringVar(&personaFlag, "persona", "", "primary persona hint (photographer, foodie, adventurer, culture, family, balanced)")
	generateCmd.Flags().BoolVar(&showEvents, "events", false, "print progress events to stderr")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	raw, err := readInput(cmd.InOrStdin(), inputPath)
	if err != nil {
		return err
	}
	input, err := jobworker.ParseInput(raw)
	if err != nil {
		return err
	}
	if err := input.Requirements.Validate(); err != nil {
		return err
	}
	if personaFlag != "" {
		p := models.PersonaType(personaFlag)
		if !p.Valid() {
			return fmt.Errorf("unknown persona %q", personaFlag)
		}
		if input.PersonaHint == nil {
			input.PersonaHint = &models.PersonaProfile{}
		}
		input.PersonaHint.Primary = p
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	var opts []orchestrator.RunOption
	if input.PersonaHint != nil {
		opts = append(opts, orchestrator.WithPersonaHint(*input.PersonaHint))
	}
	if showEvents {
		stderr := cmd.ErrOrStderr()
		opts = append(opts, orchestrator.WithEventSink(func(e orchestrator.Event) {
			fmt.Fprintf(stderr, "[%3d%%] %-10s %s\n", e.Percent, e.Phase, e.Message)
		}))
	}

	result := a.concierge.GenerateItinerary(cmd.Context(), input.Requirements, opts...)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if !result.Success {
		reason := "no error recorded"
		if result.Error != nil {
			reason = result.Error.Code + ": " + result.Error.Message
		}
		return fmt.Errorf("run %s failed: %s", result.RunID, reason)
	}
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
