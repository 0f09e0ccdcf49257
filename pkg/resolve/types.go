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

// Package resolve discovers which cloud account/region/managed-cluster record
// backs a running Kubernetes cluster and assembles a consistent picture of its
// cloud-side resources. It is independent of any particular CLI or UI; the
// display layer consumes State snapshots and issues refresh commands.
package resolve

import (
	"time"

	v1 "k8s.io/api/core/v1"

	"gitlab.com/davidxarnold/vantage/pkg/cloud"
)

// Phase is the pipeline's position within a resolution run.
type Phase string

const (
	PhaseIdle              Phase = "Idle"
	PhaseDetectingRegion   Phase = "DetectingRegion"
	PhaseCheckingAuth      Phase = "CheckingAuth"
	PhaseUnauthenticated   Phase = "Unauthenticated"
	PhaseResolvingIdentity Phase = "ResolvingIdentity"
	PhaseAggregating       Phase = "Aggregating"
	PhaseReady             Phase = "Ready"
	PhaseError             Phase = "Error"
)

// Category names one independently-fetched resource collection. A category's
// fetch failure is recorded against the category, never against the run.
type Category string

const (
	CategoryVpc       Category = "vpc"
	CategorySubnets   Category = "subnets"
	CategoryInstances Category = "instances"
	CategoryBindings  Category = "workload-bindings"
)

// Identity is the resolved managed-cluster record plus resolution metadata:
// the ordered candidate names attempted and which one succeeded. It is
// immutable once set and recomputed from scratch on every refresh.
type Identity struct {
	Cluster    *cloud.ManagedCluster
	Candidates []string
	Matched    string

	// VpcID is the virtual-network ID adopted during resolution, from the
	// instance record or the managed-cluster record. Empty when neither
	// source yielded one.
	VpcID string
}

// State is the aggregate result of one resolution run. It is replaced
// wholesale on every publish; consumers never observe a partially-updated
// view.
type State struct {
	Phase          Phase
	Generation     uint64
	ClusterContext string
	Region         string
	Identity       *Identity

	Nodes     []v1.Node `json:"-"`
	Vpc       *cloud.Vpc
	Subnets   []cloud.Subnet
	Instances []cloud.Instance
	Bindings  []cloud.WorkloadBinding

	// CategoryErrors records per-category aggregation failures. They do not
	// affect Phase and never populate Err.
	CategoryErrors map[Category]string

	Err        error `json:"-"`
	LastUpdate time.Time
}

// ErrorMessage returns the terminal error text, or empty when the run did not
// fail.
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Remediable reports whether retrying with cleared credentials (or restarting
// the process) could fix the failure: the auth probe rejected the credentials,
// or a later failure was classified as credential-related.
func (s State) Remediable() bool {
	if s.Phase == PhaseUnauthenticated {
		return true
	}
	return s.Err != nil && cloud.IsCredentialError(s.Err)
}
