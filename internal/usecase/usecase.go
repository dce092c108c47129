package usecase

import "context"

type SearchUC interface {
	FindSimilar(ctx context.Context, req *FindSimilarReq) (*FindSimilarRes, error)
}
