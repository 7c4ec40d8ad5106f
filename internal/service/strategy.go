package service

import "fmt"

// Strategy selects how record-level conflicts are reconciled. The set is
// closed; StrategyCustom carries its behavior through a resolver function
// registered on the ConflictResolver rather than through the tag itself.
type Strategy int

const (
	// StrategyRemoteWins keeps every remote field over the local version.
	// This is the default strategy and deliberately the zero value, so an
	// engine configured without a strategy resolves remote-wins.
	StrategyRemoteWins Strategy = iota
	// StrategyLocalWins keeps every local field over the remote version.
	StrategyLocalWins
	// StrategyMerge reconciles field by field through registered mergers
	// with a generic fallback.
	StrategyMerge
	// StrategyPromptUser defers the decision to the caller: the result
	// defaults to the remote record but stays unresolved until the caller
	// re-invokes resolution with an explicit strategy.
	StrategyPromptUser
	// StrategyCustom delegates to a caller-registered resolver function.
	StrategyCustom
)

var strategyNames = map[Strategy]string{
	StrategyLocalWins:  "local-wins",
	StrategyRemoteWins: "remote-wins",
	StrategyMerge:      "merge",
	StrategyPromptUser: "prompt-user",
	StrategyCustom:     "custom",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps a configuration name to its Strategy value.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return StrategyRemoteWins, fmt.Errorf("unknown conflict strategy %q", name)
}
