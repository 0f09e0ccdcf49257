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
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func TestParseProviderID(t *testing.T) {
	tests := []struct {
		name             string
		providerID       string
		expectedProvider string
		expectedParts    []string
	}{
		{
			name:             "AWS provider",
			providerID:       "aws:///us-west-2a/i-1234567890abcdef0",
			expectedProvider: "aws",
			expectedParts:    []string{"", "us-west-2a", "i-1234567890abcdef0"},
		},
		{
			name:             "GCE provider",
			providerID:       "gce://my-project/us-central1-a/my-instance",
			expectedProvider: "gce",
			expectedParts:    []string{"my-project", "us-central1-a", "my-instance"},
		},
		{
			name:             "Azure provider",
			providerID:       "azure:///subscriptions/sub-id/resourceGroups",
			expectedProvider: "azure",
			expectedParts:    []string{"", "subscriptions", "sub-id", "resourceGroups"},
		},
		{
			name:             "empty provider ID",
			providerID:       "",
			expectedProvider: "",
			expectedParts:    nil,
		},
		{
			name:             "no scheme separator",
			providerID:       "just-a-node-name",
			expectedProvider: "",
			expectedParts:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, parts := ParseProviderID(tt.providerID)

			if provider != tt.expectedProvider {
				t.Errorf("ParseProviderID(%q) got provider %q, want %q", tt.providerID, provider, tt.expectedProvider)
			}

			if len(parts) != len(tt.expectedParts) {
				t.Fatalf("ParseProviderID(%q) got %d parts, want %d", tt.providerID, len(parts), len(tt.expectedParts))
			}

			for i, part := range parts {
				if part != tt.expectedParts[i] {
					t.Errorf("ParseProviderID(%q) part[%d] = %q, want %q", tt.providerID, i, part, tt.expectedParts[i])
				}
			}
		})
	}
}

func TestTrimZoneSuffix(t *testing.T) {
	tests := []struct {
		zone string
		want string
	}{
		{"us-east-1a", "us-east-1"},
		{"us-west-2c", "us-west-2"},
		{"eu-central-1b", "eu-central-1"},
		{"us-east-1", "us-east-1"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := TrimZoneSuffix(tt.zone); got != tt.want {
			t.Errorf("TrimZoneSuffix(%q) = %q, want %q", tt.zone, got, tt.want)
		}
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name       string
		outputType string
	}{
		{name: "json output", outputType: "json"},
		{name: "default output", outputType: "table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Set("output", tt.outputType)
			defer viper.Set("output", "")

			if err := SetupLogger(); err != nil {
				t.Fatalf("SetupLogger returned error: %v", err)
			}

			switch tt.outputType {
			case "json":
				if _, ok := log.StandardLogger().Formatter.(*log.JSONFormatter); !ok {
					t.Errorf("expected JSON formatter, got %T", log.StandardLogger().Formatter)
				}
			default:
				if _, ok := log.StandardLogger().Formatter.(*log.TextFormatter); !ok {
					t.Errorf("expected text formatter, got %T", log.StandardLogger().Formatter)
				}
			}
		})
	}
}
