package prediction

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/synthlab/backend/internal/contracts"
)

// guardedService enforces the boundary contract on any PredictionService:
// one completion, no partial results, every fault mapped to ServiceError.
type guardedService struct {
	next contracts.PredictionService
}

// Guard wraps svc. Guarding an already guarded service returns it unchanged.
func Guard(svc contracts.PredictionService) contracts.PredictionService {
	if g, ok := svc.(*guardedService); ok {
		return g
	}
	return &guardedService{next: svc}
}

func (g *guardedService) RequestPrediction(ctx context.Context, req contracts.PredictionRequest) (result *contracts.PredictionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = contracts.NewServiceError(fmt.Errorf("panic in prediction service: %v", r))
		}
	}()

	res, err := g.next.RequestPrediction(ctx, req)
	if err != nil {
		return nil, contracts.NewServiceError(err)
	}
	if res == nil {
		return nil, contracts.NewServiceError(errors.New("empty prediction result"))
	}
	if err := res.CheckAlignment(); err != nil {
		return nil, contracts.NewServiceError(err)
	}

	return res.Clone(), nil
}
