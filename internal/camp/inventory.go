package camp

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

// inventoryFile is the on-disk shape of a camps.yaml file.
type inventoryFile struct {
	Camps []inventoryEntry `yaml:"camps"`
}

type inventoryEntry struct {
	Alias     string     `yaml:"alias"`
	ExpiresAt *time.Time `yaml:"expires_at,omitempty"`
}

// LoadInventory reads a camp inventory file and returns the declared camps.
func LoadInventory(path string) ([]*models.Camp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read camp inventory: %w", err)
	}

	var file inventoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse camp inventory: %w", err)
	}

	camps := make([]*models.Camp, 0, len(file.Camps))
	for _, e := range file.Camps {
		if e.Alias == "" {
			return nil, fmt.Errorf("camp inventory entry missing alias")
		}
		camps = append(camps, &models.Camp{
			Alias:     e.Alias,
			Status:    models.CampAvailable,
			ExpiresAt: e.ExpiresAt,
		})
	}
	return camps, nil
}

// Sync reconciles the pool against an inventory snapshot: camps in the
// snapshot are registered (or refreshed), and registered camps missing from
// it are marked expired. Expired camps are not removed; they stay for audit.
func Sync(pool *Pool, camps []*models.Camp) error {
	declared := make(map[string]bool, len(camps))
	for _, c := range camps {
		declared[c.Alias] = true
		if err := pool.Register(c); err != nil {
			return err
		}
	}
	for _, alias := range pool.Aliases() {
		if declared[alias] {
			continue
		}
		c := pool.Get(alias)
		if c != nil && c.Status != models.CampExpired {
			if err := pool.MarkExpired(alias); err != nil {
				return err
			}
		}
	}
	return nil
}

// Watcher keeps a pool in sync with a camp inventory file, marking camps
// expired when they vanish from it. This is the external sync that owns the
// expired lifecycle state.
type Watcher struct {
	path    string
	pool    *Pool
	watcher *fsnotify.Watcher
	log     zerolog.Logger
	done    chan struct{}
}

// NewWatcher creates a watcher for the given inventory path. Call Start to
// begin watching.
func NewWatcher(path string, pool *Pool, log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create inventory watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &Watcher{
		path:    path,
		pool:    pool,
		watcher: fw,
		log:     log.With().Str("component", "camp-watcher").Logger(),
		done:    make(chan struct{}),
	}, nil
}

// Start performs an initial sync and then reconciles on every change to the
// inventory file until Close is called.
func (w *Watcher) Start() error {
	if err := w.syncOnce(); err != nil {
		return err
	}
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.syncOnce(); err != nil {
				w.log.Error().Err(err).Msg("inventory sync failed")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("inventory watch error")
		}
	}
}

func (w *Watcher) syncOnce() error {
	camps, err := LoadInventory(w.path)
	if err != nil {
		return err
	}
	if err := Sync(w.pool, camps); err != nil {
		return err
	}
	w.log.Debug().Int("camps", len(camps)).Msg("inventory synced")
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
