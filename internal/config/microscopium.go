package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/microscopium/microscopium/internal/config/enums"
	"github.com/microscopium/microscopium/pkg/etcd"
	"github.com/rs/zerolog/log"
)

// MicroscopiumManager serves screen configuration out of etcd. Each screen is
// stored as one JSON document under /config/<app>/screens/<name> and each
// storage store under /config/<app>/storage/stores/<id>. A prefix watch keeps
// the in-memory snapshot current.
type MicroscopiumManager struct {
	etcd    etcd.Client
	appName string

	mu       sync.RWMutex
	snapshot *Microscopium
}

// NewMicroscopiumManager creates a manager, loads the initial snapshot and
// registers the refresh watch. Exported for tests with a mock etcd client.
func NewMicroscopiumManager(client etcd.Client, appName string) (*MicroscopiumManager, error) {
	m := &MicroscopiumManager{etcd: client, appName: appName}
	if err := m.reload(); err != nil {
		return nil, err
	}
	client.RegisterWatchCallback(m.basePath(), func(key, value, eventType string) error {
		log.Info().Str("key", key).Str("event", eventType).Msg("Config changed, reloading snapshot")
		return m.reload()
	})
	return m, nil
}

func initMicroscopiumManager() Manager {
	if manager == nil {
		once.Do(func() {
			var err error
			manager, err = NewMicroscopiumManager(etcd.Instance(), appName)
			if err != nil {
				log.Panic().Err(err).Msg("Failed to load config from etcd")
			}
		})
	}
	return manager
}

func (m *MicroscopiumManager) basePath() string {
	return fmt.Sprintf("/config/%s", m.appName)
}

func (m *MicroscopiumManager) screenPath(screen string) string {
	return fmt.Sprintf("/config/%s/screens/%s", m.appName, screen)
}

func (m *MicroscopiumManager) storePath(storeId string) string {
	return fmt.Sprintf("/config/%s/storage/stores/%s", m.appName, storeId)
}

// reload reads the full config tree and swaps the snapshot.
func (m *MicroscopiumManager) reload() error {
	kvs, err := m.etcd.GetPrefix(context.Background(), m.basePath()+"/")
	if err != nil {
		return err
	}
	snap := &Microscopium{
		Screens: make(map[string]Screen),
		Storage: Storage{Stores: make(map[string]Data)},
	}
	screensPrefix := m.basePath() + "/screens/"
	storesPrefix := m.basePath() + "/storage/stores/"
	for key, value := range kvs {
		switch {
		case strings.HasPrefix(key, screensPrefix):
			name := strings.TrimPrefix(key, screensPrefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			var screen Screen
			if err := json.Unmarshal([]byte(value), &screen); err != nil {
				return fmt.Errorf("failed to parse screen config %s: %w", key, err)
			}
			snap.Screens[name] = screen
		case strings.HasPrefix(key, storesPrefix):
			storeId := strings.TrimPrefix(key, storesPrefix)
			var data Data
			if err := json.Unmarshal([]byte(value), &data); err != nil {
				return fmt.Errorf("failed to parse store config %s: %w", key, err)
			}
			snap.Storage.Stores[storeId] = data
		case key == m.basePath()+"/default-in-memory-caching-ttl-seconds":
			fmt.Sscanf(value, "%d", &snap.DefaultInMemoryCachingTTLSeconds)
		case key == m.basePath()+"/default-distributed-caching-ttl-seconds":
			fmt.Sscanf(value, "%d", &snap.DefaultDistributedCachingTTLSeconds)
		}
	}
	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()
	return nil
}

func (m *MicroscopiumManager) GetConfig() (*Microscopium, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return nil, fmt.Errorf("config snapshot not loaded")
	}
	return m.snapshot, nil
}

func (m *MicroscopiumManager) GetScreens() (map[string]Screen, error) {
	conf, err := m.GetConfig()
	if err != nil {
		return nil, err
	}
	return conf.Screens, nil
}

func (m *MicroscopiumManager) GetScreenConfig(screen string) (*Screen, error) {
	conf, err := m.GetConfig()
	if err != nil {
		return nil, err
	}
	screenConf, exists := conf.Screens[screen]
	if !exists {
		return nil, fmt.Errorf("screen '%s' not found", screen)
	}
	return &screenConf, nil
}

func (m *MicroscopiumManager) GetEmbeddingConfig(screen, embedding string) (*Embedding, error) {
	screenConf, err := m.GetScreenConfig(screen)
	if err != nil {
		return nil, err
	}
	embeddingConf, exists := screenConf.Embeddings[embedding]
	if !exists {
		return nil, fmt.Errorf("embedding '%s' not found in screen '%s'", embedding, screen)
	}
	return &embeddingConf, nil
}

func (m *MicroscopiumManager) RegisterStore(confId int, db string, featureTable string, fragmentTable string) error {
	conf, err := m.GetConfig()
	if err != nil {
		return err
	}
	storeId := fmt.Sprintf("%d", len(conf.Storage.Stores)+1)
	data := Data{
		ConfId:        confId,
		FeatureTable:  featureTable,
		FragmentTable: fragmentTable,
		Db:            db,
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return m.etcd.Put(context.Background(), m.storePath(storeId), string(jsonData))
}

func (m *MicroscopiumManager) RegisterScreen(screen string, cfg Screen) error {
	conf, err := m.GetConfig()
	if err != nil {
		return err
	}
	if _, exists := conf.Screens[screen]; exists {
		return fmt.Errorf("screen '%s' already registered", screen)
	}
	if _, exists := conf.Storage.Stores[cfg.StoreId]; !exists {
		return fmt.Errorf("store '%s' not registered, register the store first", cfg.StoreId)
	}
	if cfg.State == "" {
		cfg.State = enums.FEATURE_INGESTION_STARTED
	}
	return m.putScreen(screen, cfg)
}

func (m *MicroscopiumManager) RegisterEmbedding(screen string, embedding string, cfg Embedding) error {
	screenConf, err := m.GetScreenConfig(screen)
	if err != nil {
		return err
	}
	if _, exists := screenConf.Embeddings[embedding]; exists {
		return fmt.Errorf("embedding '%s' already registered in screen '%s'", embedding, screen)
	}
	if cfg.VectorDbReadVersion == 0 {
		cfg.VectorDbReadVersion = DefaultVersion
	}
	if cfg.VectorDbWriteVersion == 0 {
		cfg.VectorDbWriteVersion = DefaultVersion
	}
	updated := *screenConf
	updated.Embeddings = cloneEmbeddings(screenConf.Embeddings)
	updated.Embeddings[embedding] = cfg
	return m.putScreen(screen, updated)
}

func (m *MicroscopiumManager) UpdateScreenState(screen string, state enums.ScreenState) error {
	screenConf, err := m.GetScreenConfig(screen)
	if err != nil {
		return err
	}
	updated := *screenConf
	updated.State = state
	return m.putScreen(screen, updated)
}

func (m *MicroscopiumManager) UpdateVectorDbConfig(screen string, embedding string, vectorDbConfig VectorDbConfig) error {
	return m.updateEmbedding(screen, embedding, func(e *Embedding) {
		e.VectorDbConfig = vectorDbConfig
	})
}

func (m *MicroscopiumManager) UpdateVectorDbReadVersion(screen string, embedding string, version int) error {
	return m.updateEmbedding(screen, embedding, func(e *Embedding) {
		e.VectorDbReadVersion = version
	})
}

func (m *MicroscopiumManager) UpdateVectorDbWriteVersion(screen string, embedding string, version int) error {
	return m.updateEmbedding(screen, embedding, func(e *Embedding) {
		e.VectorDbWriteVersion = version
	})
}

func (m *MicroscopiumManager) RegisterWatchPathCallbackWithEvent(path string, callback func(key, value, eventType string) error) error {
	m.etcd.RegisterWatchCallback(path, callback)
	return nil
}

func (m *MicroscopiumManager) updateEmbedding(screen, embedding string, mutate func(*Embedding)) error {
	screenConf, err := m.GetScreenConfig(screen)
	if err != nil {
		return err
	}
	embeddingConf, exists := screenConf.Embeddings[embedding]
	if !exists {
		return fmt.Errorf("embedding '%s' not found in screen '%s'", embedding, screen)
	}
	mutate(&embeddingConf)
	updated := *screenConf
	updated.Embeddings = cloneEmbeddings(screenConf.Embeddings)
	updated.Embeddings[embedding] = embeddingConf
	return m.putScreen(screen, updated)
}

// putScreen writes the screen document and refreshes the snapshot so reads
// after a successful write see the new value even with the watcher disabled.
func (m *MicroscopiumManager) putScreen(screen string, cfg Screen) error {
	jsonData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal screen config: %w", err)
	}
	if err := m.etcd.Put(context.Background(), m.screenPath(screen), string(jsonData)); err != nil {
		return err
	}
	return m.reload()
}

func cloneEmbeddings(in map[string]Embedding) map[string]Embedding {
	out := make(map[string]Embedding, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
