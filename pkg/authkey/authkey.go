// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package authkey

import (
	"fmt"
	"net/http"
	"os"

	"github.com/wavetermdev/riptide/pkg/util/utilfn"
)

var authkey string

const AuthKeyEnv = "RIPTIDE_AUTH_KEY"
const AuthKeyHeader = "X-AuthKey"

func ValidateIncomingRequest(r *http.Request) error {
	reqAuthKey := r.Header.Get(AuthKeyHeader)
	if reqAuthKey == "" {
		return fmt.Errorf("no x-authkey header")
	}
	if reqAuthKey != GetAuthKey() {
		return fmt.Errorf("x-authkey header is invalid")
	}
	return nil
}

// SetupAuthKey takes the key from the environment (clearing it so child
// processes never see it) or generates a fresh one for this process.
func SetupAuthKey() error {
	envKey := os.Getenv(AuthKeyEnv)
	if envKey != "" {
		authkey = envKey
		os.Setenv(AuthKeyEnv, "")
		return nil
	}
	genKey, err := utilfn.RandomHexString(64)
	if err != nil {
		return fmt.Errorf("error generating auth key: %w", err)
	}
	authkey = genKey
	return nil
}

func GetAuthKey() string {
	return authkey
}
