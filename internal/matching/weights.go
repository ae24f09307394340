package matching

// Weights defines the points awarded by each scoring rule.
// The values are a fixed policy; they are not loaded from configuration.
type Weights struct {
	PriceFit       int
	BedroomMatch   int
	CommuteFit     int
	LivelinessMax  int
	LivelinessStep int // points lost per level of liveliness gap
}

// DefaultWeights returns the scoring policy. The rule maxima sum to 100.
func DefaultWeights() Weights {
	return Weights{
		PriceFit:       50,
		BedroomMatch:   15,
		CommuteFit:     25,
		LivelinessMax:  10,
		LivelinessStep: 2,
	}
}

func (w Weights) Max() int {
	return w.PriceFit + w.BedroomMatch + w.CommuteFit + w.LivelinessMax
}
