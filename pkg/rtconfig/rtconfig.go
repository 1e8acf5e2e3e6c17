// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package rtconfig reads and watches the riptide settings file. Settings
// are flat, colon-namespaced keys ("app:quitkey") merged over embedded
// defaults. Unknown keys are kept in the merged map but dropped when
// decoding into SettingsType, so older builds tolerate newer files.
package rtconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/wavetermdev/riptide/pkg/rtbase"
	"github.com/wavetermdev/riptide/pkg/rtconfig/defaultconfig"
	"github.com/wavetermdev/riptide/pkg/util/utilfn"
)

const SettingsFile = "settings.json"

type SettingsType struct {
	AppClear   bool   `json:"app:*,omitempty"`
	AppQuitKey string `json:"app:quitkey,omitempty"`

	RenderClear         bool    `json:"render:*,omitempty"`
	RenderMinDebounceMs float64 `json:"render:mindebouncems,omitempty"`
	RenderMaxDebounceMs float64 `json:"render:maxdebouncems,omitempty"`

	DevtoolsClear bool   `json:"devtools:*,omitempty"`
	DevtoolsHost  string `json:"devtools:host,omitempty"`
	DevtoolsPort  int    `json:"devtools:port,omitempty"`
	DevtoolsOpen  bool   `json:"devtools:open,omitempty"`

	LayoutClear        bool   `json:"layout:*,omitempty"`
	LayoutAutosave     bool   `json:"layout:autosave,omitempty"`
	LayoutAutosaveName string `json:"layout:autosavename,omitempty"`
	LayoutS3Profile    string `json:"layout:s3profile,omitempty"`
	LayoutS3Bucket     string `json:"layout:s3bucket,omitempty"`
}

type ConfigError struct {
	File string `json:"file"`
	Err  string `json:"err"`
}

type FullSettingsType struct {
	Settings     SettingsType   `json:"settings"`
	ConfigErrors []ConfigError  `json:"configerrors"`
	SettingsMap  map[string]any `json:"-"`
}

func settingsAbsPath() string {
	return filepath.Join(rtbase.GetRiptideConfigDir(), SettingsFile)
}

func readSettingsMap(fsys fs.FS, fileName string) (map[string]any, []ConfigError) {
	barr, err := fs.ReadFile(fsys, fileName)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, []ConfigError{{File: fileName, Err: err.Error()}}
	}
	var m map[string]any
	if err := json.Unmarshal(barr, &m); err != nil {
		return nil, []ConfigError{{File: fileName, Err: err.Error()}}
	}
	return m, nil
}

// mergeSettingsMaps overlays update onto base. A "section:*" key set to
// true clears every key in that section before the overlay; nil values
// delete individual keys.
func mergeSettingsMaps(base map[string]any, update map[string]any) map[string]any {
	rtn := make(map[string]any)
	for k, v := range base {
		rtn[k] = v
	}
	for k, v := range update {
		if !strings.HasSuffix(k, ":*") {
			continue
		}
		clearVal, ok := v.(bool)
		if !ok || !clearVal {
			continue
		}
		prefix := strings.TrimSuffix(k, "*")
		if prefix == "" {
			continue
		}
		for k2 := range rtn {
			if strings.HasPrefix(k2, prefix) {
				delete(rtn, k2)
			}
		}
	}
	for k, v := range update {
		if strings.HasSuffix(k, ":*") {
			continue
		}
		if v == nil {
			delete(rtn, k)
			continue
		}
		rtn[k] = v
	}
	return rtn
}

// ReadFullSettings merges the embedded defaults with the user settings
// file. Parse errors never fail the read; they are collected into
// ConfigErrors and the remaining sources still apply.
func ReadFullSettings() FullSettingsType {
	var rtn FullSettingsType
	defaultMap, cerrs := readSettingsMap(defaultconfig.ConfigFS, SettingsFile)
	rtn.ConfigErrors = append(rtn.ConfigErrors, cerrs...)
	userMap, cerrs := readSettingsMap(os.DirFS(rtbase.GetRiptideConfigDir()), SettingsFile)
	rtn.ConfigErrors = append(rtn.ConfigErrors, cerrs...)
	merged := mergeSettingsMaps(defaultMap, userMap)
	rtn.SettingsMap = merged
	if err := utilfn.DoMapStructureWeak(&rtn.Settings, merged); err != nil {
		rtn.ConfigErrors = append(rtn.ConfigErrors, ConfigError{File: SettingsFile, Err: err.Error()})
	}
	return rtn
}

// WriteSettings replaces the user settings file wholesale.
func WriteSettings(settings SettingsType) error {
	if err := rtbase.EnsureRiptideConfigDir(); err != nil {
		return err
	}
	barr, err := utilfn.MarshalIndentNoHTMLString(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling settings: %w", err)
	}
	return os.WriteFile(settingsAbsPath(), []byte(barr), 0600)
}

// SetSettingsValue updates a single key in the user settings file,
// preserving keys this build does not know about.
func SetSettingsValue(key string, value any) error {
	if err := rtbase.EnsureRiptideConfigDir(); err != nil {
		return err
	}
	userMap, cerrs := readSettingsMap(os.DirFS(rtbase.GetRiptideConfigDir()), SettingsFile)
	if len(cerrs) > 0 {
		return fmt.Errorf("error reading settings file: %s", cerrs[0].Err)
	}
	if userMap == nil {
		userMap = make(map[string]any)
	}
	if value == nil {
		delete(userMap, key)
	} else {
		userMap[key] = value
	}
	barr, err := utilfn.MarshalIndentNoHTMLString(userMap, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling settings: %w", err)
	}
	return os.WriteFile(settingsAbsPath(), []byte(barr), 0600)
}
