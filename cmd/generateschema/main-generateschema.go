// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/wavetermdev/riptide/pkg/rtconfig"
	"github.com/wavetermdev/riptide/pkg/util/utilfn"
)

const RiptideSchemaSettingsFileName = "schema/settings.json"

func generateSettingsSchema() error {
	settingsSchema := jsonschema.Reflect(&rtconfig.SettingsType{})

	jsonSettingsSchema, err := json.MarshalIndent(settingsSchema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to parse local schema: %v", err)
	}
	written, err := utilfn.WriteFileIfDifferent(RiptideSchemaSettingsFileName, jsonSettingsSchema)
	if !written {
		fmt.Fprintf(os.Stderr, "no changes to %s\n", RiptideSchemaSettingsFileName)
	}
	if err != nil {
		return fmt.Errorf("failed to write local schema: %v", err)
	}
	return nil
}

func main() {
	err := generateSettingsSchema()
	if err != nil {
		log.Fatalf("settings schema error: %v", err)
	}
}
