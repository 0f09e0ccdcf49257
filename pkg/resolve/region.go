package resolve

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	v1 "k8s.io/api/core/v1"

	"gitlab.com/davidxarnold/vantage/pkg/util"
)

// regionLabels are the topology label keys consulted when the provider ID
// yields no region, newest convention first.
var regionLabels = []string{
	"topology.kubernetes.io/region",
	"failure-domain.beta.kubernetes.io/region",
}

// DetectRegion derives the cloud region from the first node's provider ID,
// falling back to its topology labels. Deterministic: the same node list
// always yields the same region.
func DetectRegion(nodes []v1.Node) (string, error) {
	if len(nodes) == 0 {
		return "", fmt.Errorf("no nodes available: %w", ErrRegionUnknown)
	}

	node := nodes[0]
	if zone, _, ok := providerZoneAndInstance(node.Spec.ProviderID); ok {
		if region := util.TrimZoneSuffix(zone); region != "" {
			log.Debugf("detected region %s from provider ID %s", region, node.Spec.ProviderID)
			return region, nil
		}
	}

	for _, key := range regionLabels {
		if v := node.Labels[key]; v != "" {
			log.Debugf("detected region %s from label %s", v, key)
			return v, nil
		}
	}

	return "", fmt.Errorf("node %s: %w", node.Name, ErrRegionUnknown)
}

// ProviderHints carries identifiers pulled opportunistically from the first
// node's provider ID. Either field may be empty.
type ProviderHints struct {
	InstanceID string
}

// NodeProviderHints extracts hints from the first node of the list. An empty
// node list or unparseable provider ID yields empty hints.
func NodeProviderHints(nodes []v1.Node) ProviderHints {
	if len(nodes) == 0 {
		return ProviderHints{}
	}
	_, id, ok := providerZoneAndInstance(nodes[0].Spec.ProviderID)
	if !ok {
		return ProviderHints{}
	}
	return ProviderHints{InstanceID: id}
}

// providerZoneAndInstance matches a provider ID against the
// <provider>:///<zone>/<instance-id> shape and returns zone and instance ID.
func providerZoneAndInstance(providerID string) (zone, instanceID string, ok bool) {
	provider, parts := util.ParseProviderID(providerID)
	if provider == "" || len(parts) != 3 || parts[0] != "" || parts[1] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}
