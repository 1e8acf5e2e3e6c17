// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package layoutstore

import (
	"log"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"gopkg.in/ini.v1"
)

// ListAWSProfiles returns the profile names found in the AWS CLI shared
// config and credentials files. Missing files are not an error.
func ListAWSProfiles() []string {
	profiles := make(map[string]struct{})
	fname := config.DefaultSharedConfigFilename()
	f, err := ini.Load(fname)
	if err == nil {
		for _, v := range f.Sections() {
			if len(v.Keys()) == 0 {
				continue
			}
			parts := strings.Split(v.Name(), " ")
			if len(parts) == 2 && parts[0] == "profile" {
				profiles[parts[1]] = struct{}{}
			}
		}
	} else {
		log.Printf("[layoutstore] error reading aws config file: %v", err)
	}

	fname = config.DefaultSharedCredentialsFilename()
	f, err = ini.Load(fname)
	if err == nil {
		for _, v := range f.Sections() {
			if v.Name() == ini.DefaultSection {
				continue
			}
			profiles[v.Name()] = struct{}{}
		}
	} else {
		log.Printf("[layoutstore] error reading aws credentials file: %v", err)
	}

	rtn := make([]string, 0, len(profiles))
	for name := range profiles {
		rtn = append(rtn, name)
	}
	sort.Strings(rtn)
	return rtn
}
