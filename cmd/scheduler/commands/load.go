package commands

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/ariera/interviews-scheduler/pkg/instance"
	"github.com/ariera/interviews-scheduler/pkg/schedconfig"
)

// loadInstance parses and validates the scheduling config at path, then
// builds the canonical Instance from it. Any failure is wrapped as a
// validation-error CLIError, since both ConfigError/ConfigErrors and
// InstanceError are caught before the solver is ever invoked.
func loadInstance(path string) (*instance.Instance, error) {
	cfg, err := schedconfig.Load(path)
	if err != nil {
		return nil, &CLIError{Code: ExitValidationError, Err: fmt.Errorf("loading %s: %w", path, err)}
	}

	inst, err := instance.Build(cfg)
	if err != nil {
		return nil, &CLIError{Code: ExitValidationError, Err: fmt.Errorf("building instance from %s: %w", path, err)}
	}

	return inst, nil
}

// configHash returns a hex-encoded SHA-256 digest of the raw config
// document at path, so a recorded run can be traced back to the exact
// input that produced it even if the file is later edited.
func configHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &CLIError{Code: ExitValidationError, Err: fmt.Errorf("hashing %s: %w", path, err)}
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
