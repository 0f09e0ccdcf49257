package cloud

import (
	"context"
	"errors"
	"fmt"

	v1 "k8s.io/api/core/v1"
)

// ErrClusterNotFound is returned by GetManagedCluster when the provider has
// no managed-cluster record under the given name. Callers probing candidate
// names distinguish it from transport failures with errors.Is.
var ErrClusterNotFound = errors.New("managed cluster not found")

// AuthError reports that the credential probe explicitly failed: credentials
// are missing, expired, or rejected for the region. It is distinct from a
// probe that could not run at all, which surfaces as an ordinary error.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("cloud credentials rejected: %s", e.Reason)
}

// Gateway is the capability surface the resolution pipeline consumes. One
// implementation talks to a real cluster and cloud account; tests substitute
// fakes. All blocking calls take a context and return a typed failure or a
// result, never both.
type Gateway interface {
	// ListNodes returns the members of the Kubernetes cluster.
	ListNodes(ctx context.Context) ([]v1.Node, error)

	// ClearCredentialCache drops any cached cloud credentials so the next
	// call re-resolves them from the environment.
	ClearCredentialCache()

	// CheckAuth verifies that usable credentials exist for the region.
	// It returns nil when authenticated, an *AuthError when the provider
	// explicitly rejects the credentials, and any other error when the
	// probe itself failed.
	CheckAuth(ctx context.Context, region string) error

	// GetInstanceDetails fetches a single compute instance by ID.
	GetInstanceDetails(ctx context.Context, region, instanceID string) (*Instance, error)

	// GetManagedCluster fetches the managed-cluster record under the given
	// name, or ErrClusterNotFound.
	GetManagedCluster(ctx context.Context, region, name string) (*ManagedCluster, error)

	// GetVpcDetails fetches the virtual network by ID.
	GetVpcDetails(ctx context.Context, region, vpcID string) (*Vpc, error)

	// ListSubnets lists the subnets of a virtual network.
	ListSubnets(ctx context.Context, region, vpcID string) ([]Subnet, error)

	// ListComputeInstances lists instances scoped to the virtual network and
	// cluster name.
	ListComputeInstances(ctx context.Context, region, vpcID, clusterName string) ([]Instance, error)

	// ListWorkloadBindings lists workload-identity bindings for the cluster.
	// It does not depend on the virtual network.
	ListWorkloadBindings(ctx context.Context, region, clusterName string) ([]WorkloadBinding, error)
}
