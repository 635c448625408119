package config

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	perrors "github.com/plumbfile/plumb/internal/errors"
)

// CheckRequires verifies the running binary satisfies the config's
// "requires" constraint. Placeholder versions like "dev" skip the
// check, so local builds keep working against any config.
func CheckRequires(cfg *Config, version string) error {
	const op = "config.CheckRequires"

	if cfg.Requires == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(cfg.Requires)
	if err != nil {
		return perrors.Config(op, fmt.Sprintf("invalid requires constraint %q: %v", cfg.Requires, err))
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return nil
	}

	if !constraint.Check(v) {
		return perrors.Config(op, fmt.Sprintf("plumb %s does not satisfy required version %q", version, cfg.Requires))
	}
	return nil
}
