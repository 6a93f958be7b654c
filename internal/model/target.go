package model

import (
	"fmt"
	"strings"
)

// Target identifies one monitored market: an exchange, a symbol and a
// timeframe. The Key joins all three and is used everywhere a target needs a
// stable identity (state machine, stores, logs).
type Target struct {
	Exchange  string `mapstructure:"exchange" json:"exchange"`
	Symbol    string `mapstructure:"symbol" json:"symbol"`
	Timeframe string `mapstructure:"timeframe" json:"timeframe"`
	Enabled   bool   `mapstructure:"enabled" json:"enabled"`
}

// Key returns the canonical target identity "exchange_symbol_timeframe",
// lowercased exchange, symbol kept as configured.
func (t Target) Key() string {
	return fmt.Sprintf("%s_%s_%s", strings.ToLower(t.Exchange), t.Symbol, t.Timeframe)
}

func (t Target) String() string {
	return fmt.Sprintf("%s %s (%s)", strings.ToUpper(t.Exchange), t.Symbol, t.Timeframe)
}
