package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/google/renameio"

	"ocp-installer-helper/internal/clusterdata"
	"ocp-installer-helper/internal/config"
	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/pkg/utils"
)

const (
	ConfigureHostname = "hostname"
	ConfigureIP       = "ip"
	ConfigureChrony   = "chrony"

	chronyConfPath = "/etc/chrony.conf"
)

var ErrMissingClusterKey = errors.New("cluster info is missing a required key")

var chronyTemplate = template.Must(template.New("chrony.conf").Parse(`# Managed by ocp-installer-helper
driftfile /var/lib/chrony/drift
makestep 1.0 3
rtcsync
allow {{ .MachineNetworkCIDR }}
local stratum 10
logdir /var/log/chrony
`))

// BastionService applies host settings on the bastion from the cluster
// inventory.
type BastionService struct {
	cfg      *config.Config
	commands *CommandService
	clusters *ClusterService
}

func NewBastionService(cfg *config.Config, commands *CommandService, clusters *ClusterService) *BastionService {
	return &BastionService{cfg: cfg, commands: commands, clusters: clusters}
}

func (s *BastionService) Configure(ctx context.Context, kind string) *model.Result {
	ds, err := s.clusters.Load()
	if err != nil {
		if errors.Is(err, clusterdata.ErrNotFound) {
			return &model.Result{Success: false, Error: "cluster info is missing; upload the CSV first"}
		}
		return &model.Result{Success: false, Error: err.Error()}
	}

	var cmd string
	switch kind {
	case ConfigureHostname:
		cmd, err = s.hostnameCommand(ds)
	case ConfigureIP:
		cmd, err = s.ipCommand(ds)
	case ConfigureChrony:
		cmd, err = s.chronyCommand(ds)
	default:
		err = fmt.Errorf("unknown configuration type %q", kind)
	}
	if err != nil {
		return &model.Result{Success: false, Error: err.Error()}
	}
	return s.commands.run(ctx, "configure_"+kind, cmd)
}

func (s *BastionService) sudo(cmd string) string {
	if s.cfg.Bastion.UseSudo {
		return "sudo " + cmd
	}
	return cmd
}

func requireKeys(ds clusterdata.Dataset, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(ds.Get(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingClusterKey, strings.Join(missing, ", "))
	}
	return nil
}

func clusterDomain(ds clusterdata.Dataset) string {
	return ds.Get("metadata_name") + "." + ds.Get("base_domain")
}

func (s *BastionService) hostnameCommand(ds clusterdata.Dataset) (string, error) {
	if err := requireKeys(ds, "hostname_bastion", "metadata_name", "base_domain"); err != nil {
		return "", err
	}
	fqdn := utils.SanitizeString(ds.Get("hostname_bastion") + "." + clusterDomain(ds))
	return s.sudo("hostnamectl set-hostname " + fqdn), nil
}

// ipCommand sets a static address on the bastion interface. The bastion
// uses the master0 prefix and gateway and resolves through itself.
func (s *BastionService) ipCommand(ds clusterdata.Dataset) (string, error) {
	if err := requireKeys(ds, "nodeip_bastion", "prefix_master0", "gw_master0", "metadata_name", "base_domain"); err != nil {
		return "", err
	}
	ip := ds.Get("nodeip_bastion")
	gw := ds.Get("gw_master0")
	for _, addr := range []string{ip, gw} {
		if err := utils.ValidateIP(addr); err != nil {
			return "", err
		}
	}
	cidr := fmt.Sprintf("%s/%s", ip, ds.Get("prefix_master0"))
	if err := utils.ValidateCIDR(cidr); err != nil {
		return "", err
	}

	iface := utils.SanitizeString(s.cfg.Bastion.Interface)
	search := utils.SanitizeString(clusterDomain(ds))
	return fmt.Sprintf("%s && %s",
		s.sudo(fmt.Sprintf("nmcli connection modify %s ipv4.method manual ipv4.addresses %s ipv4.gateway %s ipv4.dns %s ipv4.dns-search %s",
			iface, cidr, gw, ip, search)),
		s.sudo("nmcli connection up "+iface)), nil
}

// RenderChrony renders the bastion chrony.conf serving the machine network.
func RenderChrony(machineNetworkCIDR string) (string, error) {
	var buf bytes.Buffer
	err := chronyTemplate.Execute(&buf, struct{ MachineNetworkCIDR string }{machineNetworkCIDR})
	return buf.String(), err
}

func (s *BastionService) chronyCommand(ds clusterdata.Dataset) (string, error) {
	if err := requireKeys(ds, "machine_network_cidr"); err != nil {
		return "", err
	}
	cidr := ds.Get("machine_network_cidr")
	if err := utils.ValidateCIDR(cidr); err != nil {
		return "", err
	}
	content, err := RenderChrony(cidr)
	if err != nil {
		return "", err
	}

	staged := filepath.Join(s.cfg.Paths.ConfigDir, "chrony.conf")
	if err := os.MkdirAll(filepath.Dir(staged), 0o755); err != nil {
		return "", err
	}
	if err := renameio.WriteFile(staged, []byte(content), 0o644); err != nil {
		return "", err
	}

	return strings.Join([]string{
		fmt.Sprintf("(test ! -f %[1]s || %s)", chronyConfPath, s.sudo(fmt.Sprintf("cp -p %[1]s %[1]s.bak", chronyConfPath))),
		s.sudo(fmt.Sprintf("install -m 0644 %s %s", staged, chronyConfPath)),
		s.sudo("systemctl enable --now chronyd"),
		s.sudo("systemctl restart chronyd"),
	}, " && "), nil
}
