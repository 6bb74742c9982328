package predict

import "github.com/flatfinder-sg/flatfinder/internal/domain"

// Input is the feature vector handed to a price predictor for one unit.
type Input struct {
	Town              string
	FlatType          string
	FlatModel         string
	FloorAreaSqm      float64
	FloorLevel        int
	LeaseCommenceYear int
	Year              int
	Latitude          float64
	Longitude         float64
	Distances         domain.Distances
}

// Predictor maps a unit's feature vector to an estimated resale price for
// the target year. Implementations may fail per call; the ranking engine
// treats such failures as skip-and-continue, except for unknown
// town/flat-type codes which abort the request.
type Predictor interface {
	Predict(in Input) (float64, error)
}

// Func adapts a plain function to the Predictor interface.
type Func func(in Input) (float64, error)

// Predict implements Predictor.
func (f Func) Predict(in Input) (float64, error) { return f(in) }
