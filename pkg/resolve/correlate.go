package resolve

import (
	"strings"

	v1 "k8s.io/api/core/v1"

	"gitlab.com/davidxarnold/vantage/pkg/cloud"
)

// CorrelateNodes joins compute instances to cluster nodes: an instance maps
// to the first node whose provider ID contains the instance's ID as a
// substring (the common case is an exact suffix). Instances with no match
// keep an empty MappedNode, which is expected for unmanaged instances.
//
// Short instance IDs could in theory occur inside unrelated provider IDs and
// mis-match; realistic IDs (17-character i- hex strings) make that unlikely,
// and the heuristic is kept rather than tightened to suffix-only matching.
func CorrelateNodes(instances []cloud.Instance, nodes []v1.Node) []cloud.Instance {
	for i := range instances {
		id := instances[i].ID
		if id == "" {
			continue
		}
		for j := range nodes {
			if strings.Contains(nodes[j].Spec.ProviderID, id) {
				instances[i].MappedNode = nodes[j].Name
				break
			}
		}
	}
	return instances
}
