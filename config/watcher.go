package config

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

var (
	gLock   sync.RWMutex
	gConfig *Config
)

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		HTTPPort:               8080,
		Framerate:              10,
		IMURate:                100,
		RecordPath:             "recordings",
		FilesystemMaxSize:      20 << 30,
		BufferTimeSec:          5,
		RecordTimeSec:          30,
		MaxRecordTimeSec:       300,
		MotionThresh:           0.005,
		NotificationHoursStart: 0,
		NotificationHoursEnd:   24,
	}
}

func configFromFile(path string) (*Config, error) {
	config := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p := json.NewDecoder(f)
	if err := p.Decode(config); err != nil {
		return nil, err
	}
	log.Infof("Loaded configuration: %v", spew.Sdump(config))
	return config, nil
}

func Get() *Config {
	gLock.RLock()
	defer gLock.RUnlock()
	return gConfig
}

func waitForChange(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-watcher.Events:
	}
	// Editors often write in bursts, settle before reloading.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second / 10):
	}
	return ctx.Err()
}

// Load reads the config at path and keeps reloading it on changes until
// ctx is cancelled. A missing file falls back to defaults with no reload
// watcher.
func Load(ctx context.Context, path string) error {
	config, err := configFromFile(path)
	if os.IsNotExist(err) {
		log.Warnf("Config file %v not found, using defaults", path)
		gConfig = Default()
		return nil
	}
	if err != nil {
		return err
	}
	gConfig = config
	go func() {
		for ctx.Err() == nil {
			if err := waitForChange(ctx, path); err != nil {
				log.Errorf("Error waiting for file change: %v", err)
				continue
			}

			config, err := configFromFile(path)
			if err != nil {
				log.Errorf("Failed to load new config: %v", err)
				continue
			}
			gLock.Lock()
			gConfig = config
			gLock.Unlock()
		}
	}()
	return nil
}
