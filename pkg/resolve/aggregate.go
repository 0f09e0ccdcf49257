package resolve

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"gitlab.com/davidxarnold/vantage/pkg/cloud"
)

// Aggregate holds the outcome of the concurrent resource fetch. Each
// collection is independently nullable; Errors records the categories whose
// fetch failed without affecting the others.
type Aggregate struct {
	Vpc       *cloud.Vpc
	Subnets   []cloud.Subnet
	Instances []cloud.Instance
	Bindings  []cloud.WorkloadBinding
	Errors    map[Category]string
}

// FetchResources fans out up to four fetches and waits for all of them to
// settle. A category's failure is recorded and isolated; it never aborts the
// remaining fetches. When no VPC ID is known the network-scoped fetches (VPC
// detail, subnets, instances) are skipped entirely and only the
// workload-binding fetch runs.
func FetchResources(ctx context.Context, gw cloud.Gateway, region, clusterName, vpcID string, fetchTimeout time.Duration) *Aggregate {
	agg := &Aggregate{Errors: make(map[Category]string)}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	fail := func(cat Category, err error) {
		mu.Lock()
		agg.Errors[cat] = err.Error()
		mu.Unlock()
		log.Debugf("fetch %s failed: %v", cat, err)
	}

	run := func(cat Category, fetch func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fctx := ctx
			if fetchTimeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(ctx, fetchTimeout)
				defer cancel()
			}
			if err := fetch(fctx); err != nil {
				fail(cat, err)
			}
		}()
	}

	if vpcID != "" {
		run(CategoryVpc, func(fctx context.Context) error {
			vpc, err := gw.GetVpcDetails(fctx, region, vpcID)
			if err != nil {
				return err
			}
			mu.Lock()
			agg.Vpc = vpc
			mu.Unlock()
			return nil
		})
		run(CategorySubnets, func(fctx context.Context) error {
			subnets, err := gw.ListSubnets(fctx, region, vpcID)
			if err != nil {
				return err
			}
			mu.Lock()
			agg.Subnets = subnets
			mu.Unlock()
			return nil
		})
		run(CategoryInstances, func(fctx context.Context) error {
			instances, err := gw.ListComputeInstances(fctx, region, vpcID, clusterName)
			if err != nil {
				return err
			}
			mu.Lock()
			agg.Instances = instances
			mu.Unlock()
			return nil
		})
	} else {
		log.Debugf("no VPC ID resolved for %s; skipping network-scoped fetches", clusterName)
	}

	run(CategoryBindings, func(fctx context.Context) error {
		bindings, err := gw.ListWorkloadBindings(fctx, region, clusterName)
		if err != nil {
			return err
		}
		mu.Lock()
		agg.Bindings = bindings
		mu.Unlock()
		return nil
	})

	wg.Wait()
	return agg
}
