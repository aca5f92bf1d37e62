package config

import (
	"github.com/microscopium/microscopium/internal/config/enums"
)

type Manager interface {
	GetConfig() (*Microscopium, error)
	GetScreens() (map[string]Screen, error)
	GetScreenConfig(screen string) (*Screen, error)
	GetEmbeddingConfig(screen, embedding string) (*Embedding, error)
	RegisterStore(confId int, db string, featureTable string, fragmentTable string) error
	RegisterScreen(screen string, cfg Screen) error
	RegisterEmbedding(screen string, embedding string, cfg Embedding) error
	UpdateScreenState(screen string, state enums.ScreenState) error
	UpdateVectorDbConfig(screen string, embedding string, vectorDbConfig VectorDbConfig) error
	UpdateVectorDbReadVersion(screen string, embedding string, version int) error
	UpdateVectorDbWriteVersion(screen string, embedding string, version int) error
	RegisterWatchPathCallbackWithEvent(path string, callback func(key, value, eventType string) error) error
}
