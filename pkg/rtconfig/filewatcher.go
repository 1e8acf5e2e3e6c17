// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package rtconfig

import (
	"log"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/wavetermdev/riptide/pkg/panichandler"
	"github.com/wavetermdev/riptide/pkg/rps"
	"github.com/wavetermdev/riptide/pkg/rtbase"
	"github.com/wavetermdev/riptide/pkg/util/ds"
)

// editors fire Write twice (content + metadata); events inside this
// window for the same file+op collapse to one reload
const eventDedupeTimeout = 50 * time.Millisecond

var instance *Watcher
var once sync.Once

type ChangeListenerFunc func(fullSettings FullSettingsType)

type Watcher struct {
	initialized  bool
	watcher      *fsnotify.Watcher
	mutex        sync.Mutex
	fullSettings FullSettingsType
	listeners    []ChangeListenerFunc
	recentEvents *ds.ExpSet
	broker       *rps.Broker
}

type WatcherUpdate struct {
	FullSettings FullSettingsType `json:"fullsettings"`
}

// GetWatcher returns the singleton instance of the Watcher
func GetWatcher() *Watcher {
	once.Do(func() {
		configDirAbsPath := rtbase.GetRiptideConfigDir()
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Printf("[watcher] failed to create file watcher: %v", err)
			return
		}
		instance = &Watcher{watcher: watcher, recentEvents: ds.MakeExpSet()}
		err = instance.watcher.Add(configDirAbsPath)
		if err != nil {
			log.Printf("[watcher] failed to add path %s to watcher: %v", configDirAbsPath, err)
		}
	})
	return instance
}

// SetBroker routes settings updates onto the event broker (devtools
// subscribers). May be nil; local listeners still fire.
func (w *Watcher) SetBroker(broker *rps.Broker) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.broker = broker
}

func (w *Watcher) OnChange(listener ChangeListenerFunc) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.listeners = append(w.listeners, listener)
}

func (w *Watcher) Start() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	log.Printf("[watcher] starting file watcher\n")
	w.initialized = true
	w.fullSettings = ReadFullSettings()

	go func() {
		defer func() {
			panichandler.PanicHandler("rtconfig:watcher", recover())
		}()
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Println("[watcher] watcher error:", err)
			}
		}
	}()
}

func (w *Watcher) Close() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
		log.Println("[watcher] file watcher closed")
	}
}

func (w *Watcher) broadcast_nolock(update WatcherUpdate) {
	if w.broker != nil {
		w.broker.Publish(rps.Event{
			Event: rps.Event_ConfigChanged,
			Data:  update,
		})
	}
	for _, listener := range w.listeners {
		listener(update.FullSettings)
	}
}

func (w *Watcher) GetFullSettings() FullSettingsType {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !w.initialized {
		w.fullSettings = ReadFullSettings()
		w.initialized = true
	}
	return w.fullSettings
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	fileName := filepath.ToSlash(event.Name)
	if event.Op == fsnotify.Chmod {
		return
	}
	if !isValidSubSettingsFileName(fileName) {
		return
	}
	dedupeKey := fileName + "|" + event.Op.String()
	if !w.recentEvents.Claim(dedupeKey, eventDedupeTimeout) {
		return
	}
	w.handleSettingsFileEvent(fileName)
}

var validFileRe = regexp.MustCompile(`^[a-zA-Z0-9_@.-]+\.json$`)

func isValidSubSettingsFileName(fileName string) bool {
	if filepath.Ext(fileName) != ".json" {
		return false
	}
	baseName := filepath.Base(fileName)
	return validFileRe.MatchString(baseName)
}

func (w *Watcher) handleSettingsFileEvent(fileName string) {
	fullSettings := ReadFullSettings()
	w.fullSettings = fullSettings
	w.broadcast_nolock(WatcherUpdate{FullSettings: fullSettings})
}
