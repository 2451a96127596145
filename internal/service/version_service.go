package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/blang/semver"
	"github.com/google/renameio"
	"golang.org/x/net/html"

	"ocp-installer-helper/internal/config"
	"ocp-installer-helper/internal/pkg/logger"
)

var releaseDirPattern = regexp.MustCompile(`^4\.\d+\.\d+/$`)

// VersionService lists the OpenShift releases published on the client mirror.
type VersionService struct {
	cfg    *config.Config
	client *http.Client
	logger *logger.Logger
}

func NewVersionService(cfg *config.Config, client *http.Client, logger *logger.Logger) *VersionService {
	if client == nil {
		client = http.DefaultClient
	}
	return &VersionService{cfg: cfg, client: client, logger: logger}
}

// Versions fetches the mirror index, returns the releases newest first and
// records them in the versions file.
func (s *VersionService) Versions(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.Mirror.ClientsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.cfg.Mirror.ClientsURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: %s", s.cfg.Mirror.ClientsURL, resp.Status)
	}

	versions, err := ParseReleaseIndex(resp.Body)
	if err != nil {
		return nil, err
	}

	if err := s.save(versions); err != nil {
		s.logger.Warnf("failed to record versions: %v", err)
	}
	s.logger.Infof("found %d releases", len(versions))
	return versions, nil
}

func (s *VersionService) save(versions []string) error {
	path := s.cfg.Paths.VersionFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	content := strings.Join(versions, "\n")
	if content != "" {
		content += "\n"
	}
	return renameio.WriteFile(path, []byte(content), 0o644)
}

// ParseReleaseIndex extracts "4.x.y/" directory links from an HTML index and
// returns the versions sorted newest first.
func ParseReleaseIndex(r io.Reader) ([]string, error) {
	seen := map[string]semver.Version{}
	tokenizer := html.NewTokenizer(r)

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return nil, fmt.Errorf("failed to parse release index: %w", err)
			}
			return sortVersions(seen), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := tokenizer.Token()
			if tok.Data != "a" {
				continue
			}
			for _, attr := range tok.Attr {
				if attr.Key != "href" || !releaseDirPattern.MatchString(attr.Val) {
					continue
				}
				name := strings.TrimSuffix(attr.Val, "/")
				if v, err := semver.Parse(name); err == nil {
					seen[name] = v
				}
			}
		}
	}
}

func sortVersions(set map[string]semver.Version) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		return set[out[i]].GT(set[out[j]])
	})
	return out
}

// StreamVersions returns the releases of versions that belong to stream x.y.
func StreamVersions(versions []string, stream string) []string {
	var out []string
	for _, v := range versions {
		if strings.HasPrefix(v, stream+".") {
			out = append(out, v)
		}
	}
	return out
}
