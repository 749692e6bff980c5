package predictor

// Predictor is a branch direction predictor. Predict must be called before
// the outcome of a branch is known; Update trains the predictor with the
// actual outcome.
type Predictor interface {
	// Name returns the configuration string that builds this predictor.
	Name() string

	// Predict returns true if the branch at addr is predicted taken.
	Predict(addr uint64) bool

	// Update trains the predictor with the actual outcome of the branch at
	// addr.
	Update(addr uint64, taken bool)
}

// Static always predicts taken.
type Static struct{}

// Name returns "static".
func (Static) Name() string {
	return "static"
}

// Predict always returns true.
func (Static) Predict(uint64) bool {
	return true
}

// Update does nothing.
func (Static) Update(uint64, bool) {}

// New validates the configuration and builds a freshly initialized predictor.
func New(config Config) (Predictor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Kind {
	case KindGshare:
		return NewGshare(config.HistoryBits, config.CounterInit), nil
	case KindTournament:
		return NewTournament(
			config.GlobalBits,
			config.LocalHistoryBits,
			config.PCIndexBits,
			config.CounterInit,
		), nil
	default:
		return Static{}, nil
	}
}
