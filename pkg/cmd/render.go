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

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	pt "github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"gitlab.com/davidxarnold/vantage/pkg/cloud"
	"gitlab.com/davidxarnold/vantage/pkg/resolve"
)

func renderState(s resolve.State) error {
	switch viper.GetString("output") {
	case "json":
		return renderJSON(s)
	case "pretty":
		renderTables(s, pt.StyleColoredBright)
	default:
		renderTables(s, pt.StyleDefault)
	}

	if s.Phase == resolve.PhaseError || s.Phase == resolve.PhaseUnauthenticated {
		return s.Err
	}
	return nil
}

// statePayload is the JSON shape of a resolution state.
type statePayload struct {
	Phase          resolve.Phase               `json:",omitempty"`
	ClusterContext string                      `json:",omitempty"`
	Region         string                      `json:",omitempty"`
	Cluster        *cloud.ManagedCluster       `json:",omitempty"`
	Candidates     []string                    `json:",omitempty"`
	Matched        string                      `json:",omitempty"`
	Vpc            *cloud.Vpc                  `json:",omitempty"`
	Subnets        []cloud.Subnet              `json:",omitempty"`
	Instances      []cloud.Instance            `json:",omitempty"`
	Bindings       []cloud.WorkloadBinding     `json:",omitempty"`
	CategoryErrors map[resolve.Category]string `json:",omitempty"`
	Error          string                      `json:",omitempty"`
	Remediable     bool                        `json:",omitempty"`
}

func renderJSON(s resolve.State) error {
	payload := statePayload{
		Phase:          s.Phase,
		ClusterContext: s.ClusterContext,
		Region:         s.Region,
		Vpc:            s.Vpc,
		Subnets:        s.Subnets,
		Instances:      s.Instances,
		Bindings:       s.Bindings,
		CategoryErrors: s.CategoryErrors,
		Error:          s.ErrorMessage(),
		Remediable:     s.Remediable(),
	}
	if s.Identity != nil {
		payload.Cluster = s.Identity.Cluster
		payload.Candidates = s.Identity.Candidates
		payload.Matched = s.Identity.Matched
	}
	if payload.Candidates == nil {
		payload.Candidates = triedCandidates(s.Err)
	}

	out, err := json.MarshalIndent(payload, "", "\t")
	if err != nil {
		log.Error(err)
		return err
	}
	fmt.Println(string(out))
	return nil
}

func renderTables(s resolve.State, style pt.Style) {
	t := pt.NewWriter()
	t.SetStyle(style)
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Cluster")
	t.AppendRow(pt.Row{"Context", s.ClusterContext})
	t.AppendRow(pt.Row{"Phase", string(s.Phase)})
	if s.Region != "" {
		t.AppendRow(pt.Row{"Region", s.Region})
	}
	if s.Identity != nil && s.Identity.Cluster != nil {
		c := s.Identity.Cluster
		t.AppendRow(pt.Row{"Managed Cluster", c.Name})
		t.AppendRow(pt.Row{"Version", c.Version})
		t.AppendRow(pt.Row{"Status", c.Status})
		t.AppendRow(pt.Row{"Endpoint", c.Endpoint})
	}
	if s.Vpc != nil {
		t.AppendRow(pt.Row{"VPC", fmt.Sprintf("%s (%s)", s.Vpc.ID, s.Vpc.Cidr)})
	}
	t.Render()

	if s.Err != nil {
		fmt.Println()
		fmt.Printf("Error: %v\n", s.Err)
		if tried := triedCandidates(s.Err); tried != nil {
			fmt.Printf("Cluster names tried, in order: %s\n", strings.Join(tried, ", "))
		}
		if s.Remediable() {
			fmt.Println("Cloud credentials look expired or invalid. Retry after refreshing them, or restart the application.")
		}
		return
	}

	if len(s.Subnets) > 0 || s.CategoryErrors[resolve.CategorySubnets] != "" {
		renderSubnets(s, style)
	}
	if len(s.Instances) > 0 || s.CategoryErrors[resolve.CategoryInstances] != "" {
		renderInstances(s, style)
	}
	if len(s.Bindings) > 0 || s.CategoryErrors[resolve.CategoryBindings] != "" {
		renderBindings(s, style)
	}
	if msg := s.CategoryErrors[resolve.CategoryVpc]; msg != "" {
		fmt.Printf("\nVPC details unavailable: %s\n", msg)
	}
}

func renderSubnets(s resolve.State, style pt.Style) {
	if msg := s.CategoryErrors[resolve.CategorySubnets]; msg != "" {
		fmt.Printf("\nSubnets unavailable: %s\n", msg)
		return
	}

	t := pt.NewWriter()
	t.SetStyle(style)
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Subnets")
	t.AppendHeader(pt.Row{"Subnet", "CIDR", "Zone", "Free IPs", "Public"})
	for _, sn := range s.Subnets {
		t.AppendRow(pt.Row{sn.ID, sn.Cidr, sn.Zone, sn.AvailableIPs, sn.Public})
	}
	fmt.Println()
	t.Render()
}

func renderInstances(s resolve.State, style pt.Style) {
	if msg := s.CategoryErrors[resolve.CategoryInstances]; msg != "" {
		fmt.Printf("\nInstances unavailable: %s\n", msg)
		return
	}

	t := pt.NewWriter()
	t.SetStyle(style)
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Compute Instances")
	t.AppendHeader(pt.Row{"Instance", "Name", "Type", "State", "Private IP", "Zone", "Node"})
	for _, inst := range s.Instances {
		t.AppendRow(pt.Row{inst.ID, inst.Name, inst.Type, inst.State, inst.PrivateIP, inst.Zone, inst.MappedNode})
	}
	fmt.Println()
	t.Render()
}

func renderBindings(s resolve.State, style pt.Style) {
	if msg := s.CategoryErrors[resolve.CategoryBindings]; msg != "" {
		fmt.Printf("\nWorkload identity bindings unavailable: %s\n", msg)
		return
	}

	t := pt.NewWriter()
	t.SetStyle(style)
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Workload Identity Bindings")
	t.AppendHeader(pt.Row{"Namespace", "Service Account", "Role"})
	for _, b := range s.Bindings {
		t.AppendRow(pt.Row{b.Namespace, b.ServiceAccount, b.RoleArn})
	}
	fmt.Println()
	t.Render()
}

// triedCandidates returns the candidate names attempted when err is an
// identity-resolution failure, nil otherwise.
func triedCandidates(err error) []string {
	var nf *resolve.IdentityNotFoundError
	if errors.As(err, &nf) {
		return nf.Candidates
	}
	return nil
}
