package domain

import "go.trai.ch/zerr"

// CheckStrategy decides when run and apply make sure an environment is materialized.
type CheckStrategy string

const (
	// CheckAuto prepares the environment when it is missing, was interrupted,
	// or lacks the requested executable. It is the default.
	CheckAuto CheckStrategy = "auto"
	// CheckSkip never touches an existing environment.
	CheckSkip CheckStrategy = "skip"
	// CheckForce always resolves the environment and relinks every package.
	CheckForce CheckStrategy = "force"
)

// CheckStrategies lists the accepted strategy names.
var CheckStrategies = []CheckStrategy{CheckAuto, CheckSkip, CheckForce}

// ParseCheckStrategy parses a strategy name. The empty string means CheckAuto.
func ParseCheckStrategy(s string) (CheckStrategy, error) {
	if s == "" {
		return CheckAuto, nil
	}
	for _, strategy := range CheckStrategies {
		if string(strategy) == s {
			return strategy, nil
		}
	}
	return "", zerr.With(zerr.Wrap(ErrInvalidCheckStrategy, "expected auto, skip or force"), "strategy", s)
}
