package clients

import (
	config "github.com/lenslook/go-backend/internal/cfg"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

func NewQdrantClient(cfg *config.QdrantCfg) (*qdrant.Client, error) {
	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.ApiKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return qdrantClient, nil
}
