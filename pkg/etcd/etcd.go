package etcd

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	dialTimeout    = 5 * time.Second
	requestTimeout = 5 * time.Second
)

// WatchCallback is invoked for every change under a watched prefix.
// eventType is "PUT" or "DELETE".
type WatchCallback func(key, value, eventType string) error

// Client is the narrow etcd surface the config manager needs.
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	GetPrefix(ctx context.Context, prefix string) (map[string]string, error)
	Put(ctx context.Context, key, value string) error
	RegisterWatchCallback(prefix string, cb WatchCallback)
}

type etcdClient struct {
	cli            *clientv3.Client
	watcherEnabled bool

	mu        sync.Mutex
	callbacks map[string][]WatchCallback
	watching  map[string]bool
}

var (
	instance Client
	once     sync.Once
)

// Init creates the shared etcd client, to be called from main.go.
func Init(servers, username, password string, watcherEnabled bool) {
	once.Do(func() {
		cli, err := clientv3.New(clientv3.Config{
			Endpoints:   strings.Split(servers, ","),
			DialTimeout: dialTimeout,
			Username:    username,
			Password:    password,
		})
		if err != nil {
			log.Panic().Msgf("Failed to create etcd client: %v", err)
		}
		instance = &etcdClient{
			cli:            cli,
			watcherEnabled: watcherEnabled,
			callbacks:      make(map[string][]WatchCallback),
			watching:       make(map[string]bool),
		}
		log.Info().Msgf("Etcd client initialized, servers: %s", servers)
	})
}

// Instance returns the shared client. Init must be called first.
func Instance() Client {
	if instance == nil {
		log.Panic().Msg("Etcd client not initialized")
	}
	return instance
}

// SetInstanceForTesting swaps the shared client. Tests only.
func SetInstanceForTesting(c Client) {
	instance = c
}

func (e *etcdClient) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	resp, err := e.cli.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if len(resp.Kvs) == 0 {
		return "", nil
	}
	return string(resp.Kvs[0].Value), nil
}

func (e *etcdClient) GetPrefix(ctx context.Context, prefix string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	resp, err := e.cli.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		out[string(kv.Key)] = string(kv.Value)
	}
	return out, nil
}

func (e *etcdClient) Put(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	_, err := e.cli.Put(ctx, key, value)
	return err
}

// RegisterWatchCallback attaches cb to the prefix and starts the watch
// goroutine for that prefix on first registration.
func (e *etcdClient) RegisterWatchCallback(prefix string, cb WatchCallback) {
	if !e.watcherEnabled {
		log.Warn().Msgf("Etcd watcher disabled, callback for %s will not fire", prefix)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callbacks[prefix] = append(e.callbacks[prefix], cb)
	if e.watching[prefix] {
		return
	}
	e.watching[prefix] = true
	go e.watch(prefix)
}

func (e *etcdClient) watch(prefix string) {
	watchChan := e.cli.Watch(context.Background(), prefix, clientv3.WithPrefix())
	for watchResp := range watchChan {
		for _, event := range watchResp.Events {
			key := string(event.Kv.Key)
			value := string(event.Kv.Value)
			eventType := event.Type.String()
			e.mu.Lock()
			cbs := append([]WatchCallback(nil), e.callbacks[prefix]...)
			e.mu.Unlock()
			for _, cb := range cbs {
				if err := cb(key, value, eventType); err != nil {
					log.Error().Err(err).Msgf("Watch callback failed for key %s", key)
				}
			}
		}
	}
	log.Warn().Msgf("Etcd watch channel closed for prefix %s", prefix)
}
