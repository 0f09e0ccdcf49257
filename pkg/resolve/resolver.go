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

package resolve

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"gitlab.com/davidxarnold/vantage/pkg/cloud"
)

const defaultFetchTimeout = 15 * time.Second

// Options tunes a Resolver.
type Options struct {
	// ClusterSuffix is the managed-cluster naming convention appended to the
	// context name when building candidates. Defaults to "-eks".
	ClusterSuffix string

	// FetchTimeout bounds each aggregation fetch. Defaults to 15s; zero after
	// explicit configuration means no bound.
	FetchTimeout time.Duration
}

// Resolver runs the resolution pipeline and owns the current State snapshot.
// Stages before aggregation run strictly sequentially; the aggregation stage
// fans out and waits for all fetches to settle.
//
// Every Refresh claims a new generation. State publishes from a superseded
// generation are dropped, so two overlapping refreshes cannot interleave
// their results: the snapshot always belongs wholly to the latest run.
type Resolver struct {
	gw   cloud.Gateway
	opts Options

	gen atomic.Uint64

	mu    sync.Mutex
	state State
}

// New creates a Resolver in the Idle phase.
func New(gw cloud.Gateway, opts Options) *Resolver {
	if opts.ClusterSuffix == "" {
		opts.ClusterSuffix = "-eks"
	}
	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	return &Resolver{
		gw:    gw,
		opts:  opts,
		state: State{Phase: PhaseIdle},
	}
}

// State returns the current snapshot.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Refresh runs the pipeline for the given kubeconfig context and returns the
// final state of this run. The published snapshot is only updated while this
// run remains the latest generation.
func (r *Resolver) Refresh(ctx context.Context, clusterContext string) State {
	gen := r.gen.Add(1)

	s := State{
		Phase:          PhaseDetectingRegion,
		Generation:     gen,
		ClusterContext: clusterContext,
	}
	r.publish(gen, s)

	fail := func(err error) State {
		s.Phase = PhaseError
		s.Err = err
		r.publish(gen, s)
		return s
	}

	nodes, err := r.gw.ListNodes(ctx)
	if err != nil {
		return fail(err)
	}
	s.Nodes = nodes

	region, err := DetectRegion(nodes)
	if err != nil {
		return fail(err)
	}
	s.Region = region

	s.Phase = PhaseCheckingAuth
	r.publish(gen, s)

	if err := r.gw.CheckAuth(ctx, region); err != nil {
		var ae *cloud.AuthError
		if errors.As(err, &ae) {
			s.Phase = PhaseUnauthenticated
			s.Err = err
			r.publish(gen, s)
			return s
		}
		return fail(err)
	}

	s.Phase = PhaseResolvingIdentity
	r.publish(gen, s)

	identity, err := ResolveIdentity(ctx, r.gw, region, clusterContext, NodeProviderHints(nodes), r.opts.ClusterSuffix)
	if err != nil {
		return fail(err)
	}
	s.Identity = identity

	s.Phase = PhaseAggregating
	r.publish(gen, s)

	agg := FetchResources(ctx, r.gw, region, identity.Matched, identity.VpcID, r.opts.FetchTimeout)

	s.Phase = PhaseReady
	s.Vpc = agg.Vpc
	s.Subnets = agg.Subnets
	s.Instances = CorrelateNodes(agg.Instances, nodes)
	s.Bindings = agg.Bindings
	s.CategoryErrors = agg.Errors
	r.publish(gen, s)
	return s
}

// RetryWithClearedCredentials invalidates the process credential cache and
// reruns the pipeline. Credentials may have been rotated externally since the
// failed run; a cached config would keep failing until its TTL lapsed.
func (r *Resolver) RetryWithClearedCredentials(ctx context.Context, clusterContext string) State {
	r.gw.ClearCredentialCache()
	return r.Refresh(ctx, clusterContext)
}

// publish replaces the snapshot unless a newer generation has been claimed.
func (r *Resolver) publish(gen uint64, s State) {
	s.LastUpdate = time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen.Load() {
		log.Debugf("dropping stale state publish from generation %d", gen)
		return
	}
	r.state = s
}
