package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/renameio"

	"ocp-installer-helper/internal/artifact"
	"ocp-installer-helper/internal/config"
	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/pkg/utils"
)

var (
	catalogNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	columnSeparator    = regexp.MustCompile(`\s{2,}`)
)

// OperatorService lists the packages of a Red Hat operator catalog.
type OperatorService struct {
	cfg      *config.Config
	commands *CommandService
	logger   *logger.Logger
}

func NewOperatorService(cfg *config.Config, commands *CommandService, logger *logger.Logger) *OperatorService {
	return &OperatorService{cfg: cfg, commands: commands, logger: logger}
}

func (s *OperatorService) List(ctx context.Context, catalog, version string) *model.OperatorsResponse {
	if !catalogNamePattern.MatchString(catalog) {
		return &model.OperatorsResponse{Success: false, Error: fmt.Sprintf("invalid catalog name %q", catalog)}
	}
	stream := version
	if err := utils.ValidateStream(stream); err != nil {
		stream = utils.StreamOf(version)
		if err := utils.ValidateStream(stream); err != nil {
			return &model.OperatorsResponse{Success: false, Error: err.Error()}
		}
	}

	image := artifact.CatalogImage(catalog, stream)
	if reg := strings.TrimSuffix(s.cfg.Mirror.CatalogRegistry, "/"); reg != "" {
		image = fmt.Sprintf("%s/%s:v%s", reg, catalog, stream)
	}

	res := s.commands.run(ctx, "list_operators", fmt.Sprintf("oc-mirror list operators --catalog=%s", image))
	if !res.Success {
		return &model.OperatorsResponse{Success: false, Error: res.Error}
	}

	if err := s.save(catalog, res.Output); err != nil {
		s.logger.Warnf("failed to save operator list for %s: %v", catalog, err)
	}
	return &model.OperatorsResponse{Success: true, Operators: ParseOperatorList(res.Output)}
}

func (s *OperatorService) save(catalog, output string) error {
	dir := s.cfg.Paths.OperatorListDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := strings.TrimSuffix(catalog, "-index") + ".out"
	return renameio.WriteFile(filepath.Join(dir, name), []byte(output+"\n"), 0o644)
}

// ParseOperatorList parses the column output of "oc-mirror list operators".
// The first line is the header; columns are separated by two or more spaces.
func ParseOperatorList(output string) []model.Operator {
	operators := []model.Operator{}
	lines := strings.Split(output, "\n")
	if len(lines) < 2 {
		return operators
	}
	for _, line := range lines[1:] {
		parts := columnSeparator.Split(strings.TrimSpace(line), -1)
		if len(parts) < 3 {
			continue
		}
		operators = append(operators, model.Operator{
			Name:           parts[0],
			DisplayName:    parts[1],
			DefaultChannel: parts[2],
		})
	}
	return operators
}
