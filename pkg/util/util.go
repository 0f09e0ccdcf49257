/*
Copyright 2025 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package util

import (
	"strings"
	"unicode"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// SetupLogger sets configuration for the default logger
func SetupLogger() (err error) {
	var (
		lf = strings.ToLower(viper.GetString("output"))
	)

	// Set log format
	switch lf {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{
			DisableLevelTruncation: true,
		})
	}
	return nil
}

// ParseProviderID returns the cloud provider and the slash-separated parts of
// the provider-specific path. Node provider IDs look like
// "aws:///us-west-2a/i-1234567890abcdef0" or
// "gce://my-project/us-central1-a/my-instance". An empty or malformed ID
// yields an empty provider and nil parts.
func ParseProviderID(pi string) (cp string, id []string) {
	s := strings.SplitN(pi, ":", 2)
	if len(s) != 2 || s[0] == "" {
		return "", nil
	}
	return s[0], strings.Split(strings.TrimPrefix(s[1], "//"), "/")
}

// TrimZoneSuffix strips the trailing availability-zone letters from a zone
// identifier, leaving the region ("us-east-1a" -> "us-east-1"). A value with
// no trailing letters is returned unchanged.
func TrimZoneSuffix(zone string) string {
	return strings.TrimRightFunc(zone, unicode.IsLetter)
}
