package cloud

// ManagedCluster is the cloud provider's canonical description of a hosted
// Kubernetes cluster, in a provider-agnostic form. Fields cover what the
// resolution pipeline and the display layer need without exposing SDK types.
type ManagedCluster struct {
	Name     string
	Arn      string
	Version  string
	Status   string
	Endpoint string
	VpcID    string
}

// Vpc describes the virtual network backing a cluster.
type Vpc struct {
	ID    string
	Cidr  string
	State string
	Name  string // value of the Name tag, if present
}

// Subnet describes one subnet inside the cluster VPC.
type Subnet struct {
	ID           string
	Cidr         string
	Zone         string
	AvailableIPs int32
	Public       bool
}

// Instance describes a compute instance that may back a cluster node.
// MappedNode is derived after fetching: the name of the Kubernetes node whose
// provider ID references this instance, or empty when no node matches.
type Instance struct {
	ID         string
	Name       string
	Type       string
	State      string
	PrivateIP  string
	Zone       string
	VpcID      string
	Tags       map[string]string
	MappedNode string
}

// WorkloadBinding associates an in-cluster service account with a cloud-side
// permission role.
type WorkloadBinding struct {
	AssociationID  string
	Namespace      string
	ServiceAccount string
	RoleArn        string
}
