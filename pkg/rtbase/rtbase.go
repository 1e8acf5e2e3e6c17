// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package rtbase holds process-wide basics: version info, the config and
// data directory layout, env handling, the single-instance lock, and log
// file setup. Everything else builds on top of it, so it must not import
// other riptide packages.
package rtbase

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"golang.org/x/mod/semver"
)

// set by the main package at build time
var RiptideVersion = "0.0.0"
var BuildTime = "0"

const (
	ConfigHomeEnvVar = "RIPTIDE_CONFIG_HOME"
	DataHomeEnvVar   = "RIPTIDE_DATA_HOME"
	DevEnvVar        = "RIPTIDE_DEV"
)

const RiptideLockFile = "riptide.lock"
const RiptideDBDir = "db"
const DotEnvFileName = "riptide.env"
const DefaultRiptideHome = "~/.riptide"
const ConfigDirName = "config"

var baseLock = &sync.Mutex{}
var ensureDirCache = map[string]bool{}

// FDLock is held for the life of the process to keep a second instance
// from opening the same data directory.
type FDLock interface {
	Close() error
}

func IsDevMode() bool {
	return os.Getenv(DevEnvVar) != ""
}

func GetHomeDir() string {
	homeVar, err := os.UserHomeDir()
	if err != nil {
		return "/"
	}
	return homeVar
}

// GetRiptideDataDir returns the data directory (db, logs). The env var
// wins; otherwise everything lives under ~/.riptide.
func GetRiptideDataDir() string {
	if dir := os.Getenv(DataHomeEnvVar); dir != "" {
		return ExpandHomeDirSafe(dir)
	}
	return ExpandHomeDirSafe(DefaultRiptideHome)
}

func GetRiptideConfigDir() string {
	if dir := os.Getenv(ConfigHomeEnvVar); dir != "" {
		return ExpandHomeDirSafe(dir)
	}
	return filepath.Join(GetRiptideDataDir(), ConfigDirName)
}

func ExpandHomeDir(pathStr string) (string, error) {
	if pathStr != "~" && !strings.HasPrefix(pathStr, "~/") && (!strings.HasPrefix(pathStr, `~\`) || runtime.GOOS != "windows") {
		return filepath.Clean(pathStr), nil
	}
	homeDir := GetHomeDir()
	if pathStr == "~" {
		return homeDir, nil
	}
	expandedPath := filepath.Clean(filepath.Join(homeDir, pathStr[2:]))
	if !strings.HasPrefix(expandedPath, homeDir) {
		return "", fmt.Errorf("potential path traversal detected for path %s", pathStr)
	}
	return expandedPath, nil
}

func ExpandHomeDirSafe(pathStr string) string {
	path, _ := ExpandHomeDir(pathStr)
	return path
}

func ReplaceHomeDir(pathStr string) string {
	homeDir := GetHomeDir()
	if pathStr == homeDir {
		return "~"
	}
	if strings.HasPrefix(pathStr, homeDir+"/") {
		return "~" + pathStr[len(homeDir):]
	}
	return pathStr
}

func EnsureRiptideDataDir() error {
	return CacheEnsureDir(GetRiptideDataDir(), "riptidehome", 0700, "riptide home directory")
}

func EnsureRiptideDBDir() error {
	return CacheEnsureDir(filepath.Join(GetRiptideDataDir(), RiptideDBDir), "riptidedb", 0700, "riptide db directory")
}

func EnsureRiptideConfigDir() error {
	return CacheEnsureDir(GetRiptideConfigDir(), "riptideconfig", 0700, "riptide config directory")
}

func CacheEnsureDir(dirName string, cacheKey string, perm os.FileMode, dirDesc string) error {
	baseLock.Lock()
	ok := ensureDirCache[cacheKey]
	baseLock.Unlock()
	if ok {
		return nil
	}
	err := TryMkdirs(dirName, perm, dirDesc)
	if err != nil {
		return err
	}
	baseLock.Lock()
	ensureDirCache[cacheKey] = true
	baseLock.Unlock()
	return nil
}

func TryMkdirs(dirName string, perm os.FileMode, dirDesc string) error {
	info, err := os.Stat(dirName)
	if errors.Is(err, fs.ErrNotExist) {
		err = os.MkdirAll(dirName, perm)
		if err != nil {
			return fmt.Errorf("cannot make %s %q: %w", dirDesc, dirName, err)
		}
		info, err = os.Stat(dirName)
	}
	if err != nil {
		return fmt.Errorf("error trying to stat %s: %w", dirDesc, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s %q must be a directory", dirDesc, dirName)
	}
	return nil
}

// LoadDotEnv seeds the environment from <configdir>/riptide.env (auth key,
// AWS profile overrides). A missing file is not an error.
func LoadDotEnv() error {
	envFile := filepath.Join(GetRiptideConfigDir(), DotEnvFileName)
	if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("error loading %s: %w", envFile, err)
	}
	return nil
}

// IsCompatibleVersion reports whether an artifact produced by version
// otherVers (a snapshot export, a devtools peer) can be consumed by this
// build. Major versions must match.
func IsCompatibleVersion(otherVers string) bool {
	other := "v" + strings.TrimPrefix(otherVers, "v")
	current := "v" + strings.TrimPrefix(RiptideVersion, "v")
	if !semver.IsValid(other) || !semver.IsValid(current) {
		return false
	}
	return semver.Major(other) == semver.Major(current)
}

// SetupLogFile redirects the standard logger to a file under the data
// dir. A fullscreen TUI owns the terminal, so logs cannot go to stderr.
func SetupLogFile(fileName string) (*os.File, error) {
	if err := EnsureRiptideDataDir(); err != nil {
		return nil, err
	}
	logPath := filepath.Join(GetRiptideDataDir(), fileName)
	fd, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %q: %w", logPath, err)
	}
	log.SetOutput(fd)
	return fd, nil
}
