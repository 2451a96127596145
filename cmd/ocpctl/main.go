package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"

	"ocp-installer-helper/internal/apiclient"
	"ocp-installer-helper/internal/artifact"
	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/internal/plan"
	"ocp-installer-helper/internal/service"
)

var (
	server       string
	catalog      string
	release      string
	file         string
	follow       bool
	dryRun       bool
	pollInterval = 5 * time.Second
)

func client() *apiclient.Client {
	return apiclient.New(server, nil)
}

// report prints a result and turns a failed one into an error.
func report(cmd *cobra.Command, res model.Result) error {
	out := cmd.OutOrStdout()
	for _, s := range []string{res.Output, res.Message} {
		if s != "" {
			fmt.Fprintln(out, s)
		}
	}
	if !res.Success {
		if res.Error == "" {
			return errors.New("request failed")
		}
		return errors.New(res.Error)
	}
	if res.Error != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), res.Error)
	}
	return nil
}

var root = &cobra.Command{
	Use:   "ocpctl",
	Short: "Command line for the OpenShift installer helper",
}

var versions = &cobra.Command{
	Use:   "versions",
	Short: "List the OpenShift releases on the client mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		res := client().Versions(cmd.Context())
		if !res.Success {
			return errors.New(res.Error)
		}
		list := res.Versions
		if release != "" {
			list = service.StreamVersions(list, release)
		}
		for _, v := range list {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	},
}

var operators = &cobra.Command{
	Use:   "operators",
	Short: "List the packages of an operator catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		res := client().ListOperators(cmd.Context(), catalog, release)
		if !res.Success {
			return errors.New(res.Error)
		}
		for _, op := range res.Operators {
			fmt.Fprintf(cmd.OutOrStdout(), "%-45s %-50s %s\n", op.Name, op.DisplayName, op.DefaultChannel)
		}
		return nil
	},
}

var execute = &cobra.Command{
	Use:   "exec <command-key>",
	Short: "Run one of the tool preparation commands on the bastion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return report(cmd, client().ExecuteCommand(cmd.Context(), args[0], release))
	},
}

var imageset = &cobra.Command{
	Use:   "imageset",
	Short: "Generate imagesetconfig.yaml from a request file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read request: %w", err)
		}
		var req artifact.ImageSetRequest
		if err := yaml.Unmarshal(content, &req); err != nil {
			return fmt.Errorf("failed to unmarshal request: %w", err)
		}
		return report(cmd, client().GenerateImageSet(cmd.Context(), req))
	},
}

var pullSecret = &cobra.Command{
	Use:   "pull-secret",
	Short: "Install the registry pull secret used by oc and oc-mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read pull secret: %w", err)
		}
		return report(cmd, client().ApplyPullSecret(cmd.Context(), string(content)))
	},
}

var mirror = &cobra.Command{
	Use:   "mirror",
	Short: "Start oc mirror with the generated imageset configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		c := client()
		run := c.RunMirror(cmd.Context())
		if !run.Success {
			return errors.New(run.Error)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "task %s started\n", run.TaskID)
		if !follow {
			return nil
		}

		printed := 0
		for {
			progress := c.MirrorProgress(cmd.Context(), run.TaskID)
			for _, line := range progress.Logs[min(printed, len(progress.Logs)):] {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			printed = max(printed, len(progress.Logs))

			switch progress.Status {
			case service.TaskSuccess:
				return nil
			case service.TaskError:
				return fmt.Errorf("mirroring failed: %s", progress.Error)
			case "":
				return errors.New(progress.Error)
			}

			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-time.After(pollInterval):
			}
		}
	},
}

var mirrorCA = &cobra.Command{
	Use:   "mirror-ca",
	Short: "Print the mirror registry root CA",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		res := client().MirrorCA(cmd.Context())
		if !res.Success {
			return errors.New(res.Error)
		}
		fmt.Fprint(cmd.OutOrStdout(), res.CAContent)
		return nil
	},
}

var sshKey = &cobra.Command{
	Use:   "ssh-key <name>",
	Short: "Print a public key, generating the keypair first with --generate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		c := client()
		if generate, _ := cmd.Flags().GetBool("generate"); generate {
			if err := report(cmd, c.GenerateSSHKey(cmd.Context(), args[0])); err != nil {
				return err
			}
		}
		res := c.SSHKey(cmd.Context(), args[0])
		if res.Error != "" {
			return errors.New(res.Error)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Key)
		return nil
	},
}

var agentConfig = &cobra.Command{
	Use:   "agent-config",
	Short: "Build the node network payload from a plan file and generate agent-config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		p, err := plan.Parse(file)
		if err != nil {
			return err
		}

		c := client()
		ds, err := c.LoadClusterInfo(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load cluster info: %w", err)
		}
		if ds.Empty() {
			return errors.New("cluster info has not been uploaded")
		}

		hosts, err := p.Hosts(ds)
		if err != nil {
			return fmt.Errorf("failed to build hosts: %w", err)
		}
		data, err := json.Marshal(hosts)
		if err != nil {
			return err
		}
		if dryRun {
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		name := p.MetadataName
		if name == "" {
			name = ds.Get("metadata_name")
		}
		return report(cmd, c.GenerateAgentConfig(cmd.Context(), model.AgentConfigForm{
			MetadataName:         name,
			RendezvousIP:         p.RendezvousIP,
			AdditionalNTPSources: p.NTPSources,
			NodesDataHidden:      string(data),
		}))
	},
}

func init() {
	root.PersistentFlags().StringVar(&server, "server", "http://localhost:5023", "Helper backend base URL")

	versions.Flags().StringVar(&release, "stream", "", "Only list releases of this x.y stream")

	operators.Flags().StringVar(&catalog, "catalog", "redhat-operator-index", "Catalog index name")
	operators.Flags().StringVar(&release, "version", "", "Release or x.y stream")
	operators.MarkFlagRequired("version")

	execute.Flags().StringVar(&release, "version", "", "Release for versioned downloads")

	imageset.Flags().StringVar(&file, "file", "", "ImageSet request (YAML or JSON)")
	imageset.MarkFlagRequired("file")

	pullSecret.Flags().StringVar(&file, "file", "", "Pull secret JSON file")
	pullSecret.MarkFlagRequired("file")

	mirror.Flags().BoolVar(&follow, "follow", false, "Poll and print progress until the run ends")

	sshKey.Flags().Bool("generate", false, "Generate the keypair first")

	agentConfig.Flags().StringVar(&file, "plan", "", "Node plan file")
	agentConfig.Flags().BoolVar(&dryRun, "dry-run", false, "Print the nodes payload instead of submitting it")
	agentConfig.MarkFlagRequired("plan")

	root.AddCommand(versions, operators, execute, imageset, pullSecret, mirror, mirrorCA, sshKey, agentConfig)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
