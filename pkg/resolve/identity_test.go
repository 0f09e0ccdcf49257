package resolve

import (
	"context"
	"errors"
	"testing"

	"gitlab.com/davidxarnold/vantage/pkg/cloud"
)

func TestResolveIdentityHaltsAtFirstMatch(t *testing.T) {
	gw := &fakeGateway{
		clusters: map[string]*cloud.ManagedCluster{
			"ctx": {Name: "ctx", VpcID: "vpc-1"},
		},
	}

	id, err := ResolveIdentity(context.Background(), gw, "us-east-1", "ctx", ProviderHints{}, "-eks")
	if err != nil {
		t.Fatalf("ResolveIdentity returned error: %v", err)
	}
	if id.Matched != "ctx" {
		t.Errorf("matched %q, want ctx", id.Matched)
	}
	if len(gw.clusterCalls) != 1 {
		t.Errorf("expected 1 lookup, got %v", gw.clusterCalls)
	}
	if id.VpcID != "vpc-1" {
		t.Errorf("expected VPC adopted from cluster record, got %q", id.VpcID)
	}
}

func TestResolveIdentityCandidateOrder(t *testing.T) {
	gw := &fakeGateway{
		instance: &cloud.Instance{
			ID:   "i-0abc",
			Tags: map[string]string{"aws:eks:cluster-name": "tagged-cluster"},
		},
		clusters: map[string]*cloud.ManagedCluster{
			"ctx-eks": {Name: "ctx-eks"},
		},
	}

	id, err := ResolveIdentity(context.Background(), gw, "us-east-1", "ctx",
		ProviderHints{InstanceID: "i-0abc"}, "-eks")
	if err != nil {
		t.Fatalf("ResolveIdentity returned error: %v", err)
	}

	wantCalls := []string{"tagged-cluster", "ctx", "ctx-eks"}
	if len(gw.clusterCalls) != len(wantCalls) {
		t.Fatalf("lookups %v, want %v", gw.clusterCalls, wantCalls)
	}
	for i := range wantCalls {
		if gw.clusterCalls[i] != wantCalls[i] {
			t.Errorf("lookup[%d] = %q, want %q", i, gw.clusterCalls[i], wantCalls[i])
		}
	}
	if id.Matched != "ctx-eks" {
		t.Errorf("matched %q, want ctx-eks", id.Matched)
	}
}

func TestResolveIdentityDeduplicatesCandidates(t *testing.T) {
	// Tag-derived name equals context+suffix: only two lookups happen.
	gw := &fakeGateway{
		instance: &cloud.Instance{
			ID:   "i-0abc",
			Tags: map[string]string{"eks:cluster-name": "prod-eks"},
		},
	}

	_, err := ResolveIdentity(context.Background(), gw, "us-east-1", "prod",
		ProviderHints{InstanceID: "i-0abc"}, "-eks")

	var nf *IdentityNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected IdentityNotFoundError, got %v", err)
	}
	if len(gw.clusterCalls) != 2 {
		t.Errorf("expected 2 lookups after dedup, got %v", gw.clusterCalls)
	}
	want := []string{"prod-eks", "prod"}
	for i := range want {
		if nf.Candidates[i] != want[i] {
			t.Errorf("candidate[%d] = %q, want %q", i, nf.Candidates[i], want[i])
		}
	}
}

func TestResolveIdentityInstanceHintFailureIsNonFatal(t *testing.T) {
	gw := &fakeGateway{
		instanceErr: errors.New("no instance information found for i-0abc"),
		clusters: map[string]*cloud.ManagedCluster{
			"ctx-eks": {Name: "ctx-eks"},
		},
	}

	id, err := ResolveIdentity(context.Background(), gw, "us-east-1", "ctx",
		ProviderHints{InstanceID: "i-0abc"}, "-eks")
	if err != nil {
		t.Fatalf("hint failure must not abort resolution: %v", err)
	}
	if id.Matched != "ctx-eks" {
		t.Errorf("matched %q, want ctx-eks", id.Matched)
	}
}

func TestResolveIdentityOwnershipKeyPrefix(t *testing.T) {
	gw := &fakeGateway{
		instance: &cloud.Instance{
			ID:   "i-0abc",
			Tags: map[string]string{"kubernetes.io/cluster/embedded-name": "owned"},
		},
		clusters: map[string]*cloud.ManagedCluster{
			"embedded-name": {Name: "embedded-name"},
		},
	}

	id, err := ResolveIdentity(context.Background(), gw, "us-east-1", "ctx",
		ProviderHints{InstanceID: "i-0abc"}, "-eks")
	if err != nil {
		t.Fatalf("ResolveIdentity returned error: %v", err)
	}
	if id.Matched != "embedded-name" {
		t.Errorf("matched %q, want embedded-name", id.Matched)
	}
}

func TestResolveIdentityVpcFromInstancePreferred(t *testing.T) {
	gw := &fakeGateway{
		instance: &cloud.Instance{
			ID:    "i-0abc",
			VpcID: "vpc-from-instance",
			Tags:  map[string]string{"eks:cluster-name": "prod-eks"},
		},
		clusters: map[string]*cloud.ManagedCluster{
			"prod-eks": {Name: "prod-eks", VpcID: "vpc-from-cluster"},
		},
	}

	id, err := ResolveIdentity(context.Background(), gw, "us-east-1", "prod",
		ProviderHints{InstanceID: "i-0abc"}, "-eks")
	if err != nil {
		t.Fatal(err)
	}
	if id.VpcID != "vpc-from-instance" {
		t.Errorf("VpcID = %q, want vpc-from-instance", id.VpcID)
	}
}

func TestResolveIdentityPropagatesLookupFailure(t *testing.T) {
	gw := &fakeGateway{
		clusterErr: errors.New("connection reset by peer"),
	}

	_, err := ResolveIdentity(context.Background(), gw, "us-east-1", "ctx", ProviderHints{}, "-eks")
	if err == nil {
		t.Fatal("expected error")
	}
	var nf *IdentityNotFoundError
	if errors.As(err, &nf) {
		t.Fatalf("transport failure misreported as not-found: %v", err)
	}
	if len(gw.clusterCalls) != 1 {
		t.Errorf("probing should stop at first hard failure, got %v", gw.clusterCalls)
	}
}
