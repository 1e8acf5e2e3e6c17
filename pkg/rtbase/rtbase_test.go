// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package rtbase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(name string) error {
	return os.WriteFile(name, []byte("x"), 0600)
}

func TestExpandHomeDir(t *testing.T) {
	home := GetHomeDir()
	path, err := ExpandHomeDir("~")
	if err != nil {
		t.Fatalf("expand ~ error: %v", err)
	}
	if path != home {
		t.Fatalf("expand ~ got %q, want %q", path, home)
	}
	path, err = ExpandHomeDir("~/foo/bar")
	if err != nil {
		t.Fatalf("expand ~/foo/bar error: %v", err)
	}
	if path != filepath.Join(home, "foo", "bar") {
		t.Fatalf("expand ~/foo/bar got %q", path)
	}
	_, err = ExpandHomeDir("~/../escape")
	if err == nil {
		t.Fatalf("expected traversal error for ~/../escape")
	}
	path, err = ExpandHomeDir("/abs/path")
	if err != nil || path != "/abs/path" {
		t.Fatalf("absolute path should pass through, got %q err %v", path, err)
	}
}

func TestReplaceHomeDir(t *testing.T) {
	home := GetHomeDir()
	if got := ReplaceHomeDir(home); got != "~" {
		t.Fatalf("ReplaceHomeDir(home) = %q, want ~", got)
	}
	if got := ReplaceHomeDir(home + "/sub"); got != "~/sub" {
		t.Fatalf("ReplaceHomeDir(home/sub) = %q, want ~/sub", got)
	}
	if got := ReplaceHomeDir("/other/place"); got != "/other/place" {
		t.Fatalf("ReplaceHomeDir passthrough = %q", got)
	}
}

func TestTryMkdirs(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "a", "b", "c")
	if err := TryMkdirs(dir, 0700, "test directory"); err != nil {
		t.Fatalf("TryMkdirs error: %v", err)
	}
	// idempotent
	if err := TryMkdirs(dir, 0700, "test directory"); err != nil {
		t.Fatalf("TryMkdirs second call error: %v", err)
	}
	file := filepath.Join(base, "plainfile")
	if err := writeTestFile(file); err != nil {
		t.Fatalf("setup error: %v", err)
	}
	err := TryMkdirs(file, 0700, "test directory")
	if err == nil || !strings.Contains(err.Error(), "must be a directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
}

func TestIsCompatibleVersion(t *testing.T) {
	oldVers := RiptideVersion
	defer func() { RiptideVersion = oldVers }()
	RiptideVersion = "1.4.2"
	testCases := []struct {
		vers string
		want bool
	}{
		{"1.0.0", true},
		{"v1.9.9", true},
		{"2.0.0", false},
		{"0.8.1", false},
		{"garbage", false},
		{"", false},
	}
	for _, tc := range testCases {
		if got := IsCompatibleVersion(tc.vers); got != tc.want {
			t.Errorf("IsCompatibleVersion(%q) = %v, want %v", tc.vers, got, tc.want)
		}
	}
}
