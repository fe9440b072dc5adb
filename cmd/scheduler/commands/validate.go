package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ValidateCmd creates the validate command: load and build an Instance
// without ever invoking the solver, surfacing any ConfigError or
// InstanceError.
func ValidateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scheduling-config.yaml>",
		Short: "Parse and validate a scheduling config without solving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			app.Logger.Debug("validate command", zap.String("path", path))

			inst, err := loadInstance(path)
			if err != nil {
				return err
			}

			fmt.Printf("OK: %d candidates, %d panels, horizon %d slots of %d minutes\n",
				inst.NumCandidates, inst.NumPanels(), inst.HorizonSlots, inst.SlotMinutes)
			return nil
		},
	}
}
