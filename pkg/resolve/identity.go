package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"gitlab.com/davidxarnold/vantage/pkg/cloud"
)

// owningClusterTagKeys are instance tag keys whose value names the owning
// managed cluster, in match order.
var owningClusterTagKeys = []string{
	"aws:eks:cluster-name",
	"eks:cluster-name",
}

// clusterOwnershipTagPrefix embeds the cluster name in the tag key itself
// ("kubernetes.io/cluster/<name>" = "owned").
const clusterOwnershipTagPrefix = "kubernetes.io/cluster/"

// ResolveIdentity builds the ordered candidate name list and probes each one
// against the managed-cluster lookup until a record resolves.
//
// Candidate order: the name derived from the hint instance's tags (when an
// instance ID is available), the raw context name, the context name with the
// managed-cluster suffix convention appended. Duplicates are dropped keeping
// first occurrence. Probing stops at the first hit; exhaustion fails with
// IdentityNotFoundError carrying the full tried list.
func ResolveIdentity(ctx context.Context, gw cloud.Gateway, region, contextName string, hints ProviderHints, suffix string) (*Identity, error) {
	var (
		candidates []string
		vpcID      string
	)

	if hints.InstanceID != "" {
		inst, err := gw.GetInstanceDetails(ctx, region, hints.InstanceID)
		if err != nil {
			// Opportunistic: a failed tag fetch just loses the first
			// candidate, the context-derived names still get probed.
			log.Debugf("instance hint %s unavailable: %v", hints.InstanceID, err)
		} else {
			if name := clusterNameFromTags(inst.Tags); name != "" {
				candidates = append(candidates, name)
			}
			vpcID = inst.VpcID
		}
	}

	candidates = append(candidates, contextName, contextName+suffix)
	candidates = dedupe(candidates)

	for _, name := range candidates {
		mc, err := gw.GetManagedCluster(ctx, region, name)
		if errors.Is(err, cloud.ErrClusterNotFound) {
			log.Debugf("no managed cluster named %q in %s", name, region)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup managed cluster %q: %w", name, err)
		}

		if vpcID == "" {
			vpcID = mc.VpcID
		}
		return &Identity{
			Cluster:    mc,
			Candidates: candidates,
			Matched:    name,
			VpcID:      vpcID,
		}, nil
	}

	return nil, &IdentityNotFoundError{Candidates: candidates}
}

// clusterNameFromTags returns the owning cluster name encoded in instance
// tags, or empty.
func clusterNameFromTags(tags map[string]string) string {
	for _, key := range owningClusterTagKeys {
		if v := tags[key]; v != "" {
			return v
		}
	}
	for key := range tags {
		if name := strings.TrimPrefix(key, clusterOwnershipTagPrefix); name != key && name != "" {
			return name
		}
	}
	return ""
}

// dedupe removes duplicates and empty entries preserving first-occurrence order.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
