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

package cmd

import (
	"errors"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"gitlab.com/davidxarnold/vantage/pkg/cloud"
	"gitlab.com/davidxarnold/vantage/pkg/resolve"
	"gitlab.com/davidxarnold/vantage/pkg/util"
)

var (
	cfgFile               string
	KubernetesConfigFlags *genericclioptions.ConfigFlags
)

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			log.Fatalln(err)
		}

		// Search config in home directory with name ".vantage" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".vantage")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// VantageConfig carries the kubeconfig plumbing shared by all commands. The
// REST config is derived on demand from the same flag set that selects the
// context, so --context steers both the node queries and the candidate names.
type VantageConfig struct {
	configFlags *genericclioptions.ConfigFlags
}

// NewVantageConfig provides an instance of VantageConfig backed by the given
// flag set.
func NewVantageConfig(cf *genericclioptions.ConfigFlags) *VantageConfig {
	return &VantageConfig{configFlags: cf}
}

// ClusterContext returns the kubeconfig context the resolver should work
// against: the --context flag when set, otherwise the current context.
func (vc *VantageConfig) ClusterContext() (string, error) {
	if vc.configFlags.Context != nil && *vc.configFlags.Context != "" {
		return *vc.configFlags.Context, nil
	}
	raw, err := vc.configFlags.ToRawKubeConfigLoader().RawConfig()
	if err != nil {
		return "", err
	}
	if raw.CurrentContext == "" {
		return "", errors.New("no current context set in kubeconfig")
	}
	return raw.CurrentContext, nil
}

// RESTConfig builds the client config from the flag set. Called after flag
// parsing so the --context, --kubeconfig, and auth overrides take effect.
func (vc *VantageConfig) RESTConfig() (*rest.Config, error) {
	return vc.configFlags.ToRESTConfig()
}

// NewResolver wires the cluster/cloud gateway and the resolution pipeline
// from the active configuration.
func (vc *VantageConfig) NewResolver() (*resolve.Resolver, error) {
	rc, err := vc.RESTConfig()
	if err != nil {
		return nil, err
	}
	k8sClient, err := kubernetes.NewForConfig(rc)
	if err != nil {
		return nil, err
	}

	creds := cloud.NewCredentialCache(viper.GetDuration("cred-cache-ttl"), nil)
	gw := cloud.NewAWSGateway(k8sClient, creds)

	return resolve.New(gw, resolve.Options{
		ClusterSuffix: viper.GetString("cluster-suffix"),
		FetchTimeout:  viper.GetDuration("fetch-timeout"),
	}), nil
}

// NewVantageCmd provides a cobra command
func NewVantageCmd() *cobra.Command {
	var output string

	KubernetesConfigFlags = genericclioptions.NewConfigFlags(false)

	vc := NewVantageConfig(KubernetesConfigFlags)

	cmd := &cobra.Command{
		Use:           "vantage",
		Short:         "See the cloud resources behind your Kubernetes cluster.",
		Long:          "Vantage discovers which cloud account, region, and managed-cluster record back the current kubeconfig context and shows the cloud-side resources: virtual network, subnets, compute instances, and workload-identity bindings.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PreRun: func(cmd *cobra.Command, args []string) {
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				log.Fatalf("unable to initialize vantage: %v ", err)
			}
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return util.SetupLogger()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			clusterContext, err := vc.ClusterContext()
			if err != nil {
				return err
			}

			resolver, err := vc.NewResolver()
			if err != nil {
				return err
			}

			state := resolver.Refresh(cmd.Context(), clusterContext)
			return renderState(state)
		},
	}

	cmd.PersistentFlags().StringVar(
		&cfgFile, "config", "",
		"config file (default is $HOME/.vantage.yaml)")
	cmd.PersistentFlags().StringVarP(
		&output, "output", "o", "table",
		"-o, --output='': Output format. One of: table|pretty|json")
	cmd.PersistentFlags().String(
		"cluster-suffix", "-eks",
		"Managed-cluster name suffix tried after the raw context name")
	cmd.PersistentFlags().Duration(
		"fetch-timeout", 15*time.Second,
		"Timeout applied to each cloud resource fetch")
	cmd.PersistentFlags().Duration(
		"cred-cache-ttl", 10*time.Minute,
		"TTL for cached cloud credentials")

	KubernetesConfigFlags.AddFlags(cmd.PersistentFlags())
	cobra.OnInitialize(initConfig)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	_ = viper.BindPFlag("output", cmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("cluster-suffix", cmd.PersistentFlags().Lookup("cluster-suffix"))
	_ = viper.BindPFlag("fetch-timeout", cmd.PersistentFlags().Lookup("fetch-timeout"))
	_ = viper.BindPFlag("cred-cache-ttl", cmd.PersistentFlags().Lookup("cred-cache-ttl"))
	_ = viper.BindPFlags(cmd.Flags())

	cmd.AddCommand(newLiveCmd(vc))

	return cmd
}
