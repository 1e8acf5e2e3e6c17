// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package schema serves the json schema for the settings file, reflected
// from the running build's settings type.
package schema

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/wavetermdev/riptide/pkg/rtconfig"
)

const SchemaContentType = "application/schema+json"

var schemaOnce sync.Once
var settingsSchemaJson []byte
var settingsSchemaErr error

func settingsSchema() ([]byte, error) {
	schemaOnce.Do(func() {
		reflected := jsonschema.Reflect(&rtconfig.SettingsType{})
		settingsSchemaJson, settingsSchemaErr = json.MarshalIndent(reflected, "", "  ")
	})
	return settingsSchemaJson, settingsSchemaErr
}

func GetSettingsSchemaHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		barr, err := settingsSchema()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", SchemaContentType)
		w.Write(barr)
	})
}
