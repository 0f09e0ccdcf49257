package cloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	log "github.com/sirupsen/logrus"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	v1 "k8s.io/api/core/v1"
)

// AWSGateway implements Gateway over the Kubernetes API and the AWS EC2, EKS,
// and STS services. Per-region AWS configs come from the credential cache so
// a user-initiated retry can invalidate them in one place.
type AWSGateway struct {
	kube  kubernetes.Interface
	creds *CredentialCache
}

// NewAWSGateway creates a gateway over the given clientset and credential cache.
func NewAWSGateway(kube kubernetes.Interface, creds *CredentialCache) *AWSGateway {
	return &AWSGateway{kube: kube, creds: creds}
}

// ListNodes returns the cluster's nodes.
func (g *AWSGateway) ListNodes(ctx context.Context) ([]v1.Node, error) {
	list, err := g.kube.CoreV1().Nodes().List(ctx, metav1.ListOptions{
		ResourceVersion: "0", // Use watch cache for faster response
	})
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return list.Items, nil
}

// ClearCredentialCache drops cached per-region AWS configs.
func (g *AWSGateway) ClearCredentialCache() {
	g.creds.Clear()
}

// CheckAuth verifies credentials for the region with an STS caller-identity
// call, the cheapest request that exercises the full signing path.
func (g *AWSGateway) CheckAuth(ctx context.Context, region string) error {
	cfg, err := g.creds.Get(ctx, region)
	if err != nil {
		if IsCredentialError(err) {
			return &AuthError{Reason: err.Error()}
		}
		return fmt.Errorf("load aws config: %w", err)
	}

	svc := sts.NewFromConfig(cfg)
	identity, err := svc.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		if IsCredentialError(err) {
			return &AuthError{Reason: authReason(err)}
		}
		return fmt.Errorf("sts caller identity: %w", err)
	}

	log.Debugf("authenticated as %s in %s", aws.ToString(identity.Arn), region)
	return nil
}

// GetInstanceDetails fetches one instance by ID.
func (g *AWSGateway) GetInstanceDetails(ctx context.Context, region, instanceID string) (*Instance, error) {
	svc, err := g.ec2Client(ctx, region)
	if err != nil {
		return nil, err
	}

	result, err := svc.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return nil, fmt.Errorf("describe instance %s: %w", instanceID, err)
	}

	if len(result.Reservations) == 0 || len(result.Reservations[0].Instances) == 0 {
		return nil, fmt.Errorf("no instance information found for %s", instanceID)
	}

	inst := mapInstance(result.Reservations[0].Instances[0])
	return &inst, nil
}

// GetManagedCluster fetches the EKS record for the given cluster name.
func (g *AWSGateway) GetManagedCluster(ctx context.Context, region, name string) (*ManagedCluster, error) {
	cfg, err := g.creds.Get(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	svc := eks.NewFromConfig(cfg)
	out, err := svc.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: aws.String(name)})
	if err != nil {
		var nf *ekstypes.ResourceNotFoundException
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("cluster %q: %w", name, ErrClusterNotFound)
		}
		return nil, fmt.Errorf("describe cluster %s: %w", name, err)
	}

	c := out.Cluster
	mc := &ManagedCluster{
		Name:     aws.ToString(c.Name),
		Arn:      aws.ToString(c.Arn),
		Version:  aws.ToString(c.Version),
		Status:   string(c.Status),
		Endpoint: aws.ToString(c.Endpoint),
	}
	if c.ResourcesVpcConfig != nil {
		mc.VpcID = aws.ToString(c.ResourcesVpcConfig.VpcId)
	}
	return mc, nil
}

// GetVpcDetails fetches the virtual network by ID.
func (g *AWSGateway) GetVpcDetails(ctx context.Context, region, vpcID string) (*Vpc, error) {
	svc, err := g.ec2Client(ctx, region)
	if err != nil {
		return nil, err
	}

	out, err := svc.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{VpcIds: []string{vpcID}})
	if err != nil {
		return nil, fmt.Errorf("describe vpc %s: %w", vpcID, err)
	}
	if len(out.Vpcs) == 0 {
		return nil, fmt.Errorf("no vpc information found for %s", vpcID)
	}

	v := out.Vpcs[0]
	vpc := &Vpc{
		ID:    aws.ToString(v.VpcId),
		Cidr:  aws.ToString(v.CidrBlock),
		State: string(v.State),
	}
	for _, tag := range v.Tags {
		if aws.ToString(tag.Key) == "Name" {
			vpc.Name = aws.ToString(tag.Value)
		}
	}
	return vpc, nil
}

// ListSubnets lists the subnets of a virtual network.
func (g *AWSGateway) ListSubnets(ctx context.Context, region, vpcID string) ([]Subnet, error) {
	svc, err := g.ec2Client(ctx, region)
	if err != nil {
		return nil, err
	}

	out, err := svc.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("describe subnets for %s: %w", vpcID, err)
	}

	subnets := make([]Subnet, 0, len(out.Subnets))
	for _, s := range out.Subnets {
		subnets = append(subnets, Subnet{
			ID:           aws.ToString(s.SubnetId),
			Cidr:         aws.ToString(s.CidrBlock),
			Zone:         aws.ToString(s.AvailabilityZone),
			AvailableIPs: aws.ToInt32(s.AvailableIpAddressCount),
			Public:       aws.ToBool(s.MapPublicIpOnLaunch),
		})
	}
	return subnets, nil
}

// ListComputeInstances lists instances in the virtual network carrying the
// cluster ownership tag.
func (g *AWSGateway) ListComputeInstances(ctx context.Context, region, vpcID, clusterName string) ([]Instance, error) {
	svc, err := g.ec2Client(ctx, region)
	if err != nil {
		return nil, err
	}

	input := &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			{Name: aws.String("tag-key"), Values: []string{"kubernetes.io/cluster/" + clusterName}},
		},
	}

	var instances []Instance
	for {
		out, err := svc.DescribeInstances(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("describe instances for cluster %s: %w", clusterName, err)
		}
		for _, res := range out.Reservations {
			for _, inst := range res.Instances {
				instances = append(instances, mapInstance(inst))
			}
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	return instances, nil
}

// ListWorkloadBindings lists EKS pod-identity associations for the cluster,
// describing each one to pick up its role ARN.
func (g *AWSGateway) ListWorkloadBindings(ctx context.Context, region, clusterName string) ([]WorkloadBinding, error) {
	cfg, err := g.creds.Get(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	svc := eks.NewFromConfig(cfg)

	input := &eks.ListPodIdentityAssociationsInput{ClusterName: aws.String(clusterName)}
	var bindings []WorkloadBinding
	for {
		out, err := svc.ListPodIdentityAssociations(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list pod identity associations for %s: %w", clusterName, err)
		}
		for _, assoc := range out.Associations {
			b := WorkloadBinding{
				AssociationID:  aws.ToString(assoc.AssociationId),
				Namespace:      aws.ToString(assoc.Namespace),
				ServiceAccount: aws.ToString(assoc.ServiceAccount),
			}
			desc, err := svc.DescribePodIdentityAssociation(ctx, &eks.DescribePodIdentityAssociationInput{
				ClusterName:   aws.String(clusterName),
				AssociationId: assoc.AssociationId,
			})
			if err != nil {
				log.Debugf("describe pod identity association %s: %v", b.AssociationID, err)
			} else if desc.Association != nil {
				b.RoleArn = aws.ToString(desc.Association.RoleArn)
			}
			bindings = append(bindings, b)
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	return bindings, nil
}

func (g *AWSGateway) ec2Client(ctx context.Context, region string) (*ec2.Client, error) {
	cfg, err := g.creds.Get(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ec2.NewFromConfig(cfg), nil
}

// mapInstance converts an EC2 instance into the provider-agnostic form.
func mapInstance(inst ec2types.Instance) Instance {
	out := Instance{
		ID:        aws.ToString(inst.InstanceId),
		Type:      string(inst.InstanceType),
		PrivateIP: aws.ToString(inst.PrivateIpAddress),
		VpcID:     aws.ToString(inst.VpcId),
		Tags:      make(map[string]string, len(inst.Tags)),
	}
	if inst.State != nil {
		out.State = string(inst.State.Name)
	}
	if inst.Placement != nil {
		out.Zone = aws.ToString(inst.Placement.AvailabilityZone)
	}
	for _, tag := range inst.Tags {
		if tag.Key == nil || tag.Value == nil {
			continue
		}
		out.Tags[*tag.Key] = *tag.Value
		if *tag.Key == "Name" {
			out.Name = *tag.Value
		}
	}
	return out
}

// authReason extracts a short reason string from a credential failure.
func authReason(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return err.Error()
}
