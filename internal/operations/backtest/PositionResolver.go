package backtest

import "StrategyBacktester/internal/services/strategy"

// Resolve lags signals by one day into positions and differences them into
// trade deltas. Position[0] is always flat.
func Resolve(signals []strategy.Signal) (positions []int, deltas []int, err error) {
	positions = make([]int, len(signals))
	deltas = make([]int, len(signals))

	prev := 0
	for t := range signals {
		if s := signals[t]; s != strategy.SignalFlat && s != strategy.SignalLong {
			return nil, nil, configError("resolve", ErrInvalidSignal, "signal %d at index %d is not 0 or 1", s, t)
		}
		if t > 0 {
			positions[t] = int(signals[t-1])
		}
		deltas[t] = positions[t] - prev
		prev = positions[t]
	}
	return positions, deltas, nil
}

// ResolveSignals is Resolve over dated signal points.
func ResolveSignals(signals []strategy.SignalPoint) ([]int, []Trade, error) {
	positions, deltas, err := Resolve(strategy.Values(signals))
	if err != nil {
		return nil, nil, err
	}
	trades := make([]Trade, len(signals))
	for i, s := range signals {
		trades[i] = Trade{Date: s.Date, Delta: deltas[i]}
	}
	return positions, trades, nil
}
