package artifact

import (
	"errors"
	"fmt"
	"strings"
)

const ImageSetConfigFile = "imagesetconfig.yaml"

// ImageSetRequest is the payload of the imageset generation form.
type ImageSetRequest struct {
	MajorVersion string            `json:"majorVersion" binding:"required"`
	MinVersion   string            `json:"minVersion" binding:"required"`
	MaxVersion   string            `json:"maxVersion" binding:"required"`
	Operators    []OperatorCatalog `json:"operators"`
}

type OperatorCatalog struct {
	Catalog  string            `json:"catalog"`
	Packages []OperatorPackage `json:"packages"`
}

type OperatorPackage struct {
	Name           string `json:"name"`
	DefaultChannel string `json:"defaultChannel,omitempty"`
}

type ImageSetConfiguration struct {
	Kind          string        `json:"kind"`
	APIVersion    string        `json:"apiVersion"`
	StorageConfig StorageConfig `json:"storageConfig"`
	Mirror        Mirror        `json:"mirror"`
}

type StorageConfig struct {
	Local LocalStorage `json:"local"`
}

type LocalStorage struct {
	Path string `json:"path"`
}

type Mirror struct {
	Platform  MirrorPlatform    `json:"platform"`
	Operators []MirrorOperators `json:"operators,omitempty"`
}

type MirrorPlatform struct {
	Channels []Channel `json:"channels"`
	Graph    bool      `json:"graph"`
}

type Channel struct {
	Name       string `json:"name"`
	MinVersion string `json:"minVersion"`
	MaxVersion string `json:"maxVersion"`
}

type MirrorOperators struct {
	Catalog  string          `json:"catalog"`
	Packages []MirrorPackage `json:"packages"`
}

type MirrorPackage struct {
	Name     string           `json:"name"`
	Channels []PackageChannel `json:"channels,omitempty"`
}

type PackageChannel struct {
	Name string `json:"name"`
}

var ErrVersionOutOfStream = errors.New("version does not belong to the selected stream")

// NewImageSetConfiguration builds the oc-mirror configuration for the stable
// channel of MajorVersion. Catalogs without packages are dropped.
func NewImageSetConfiguration(req ImageSetRequest, storagePath string) (*ImageSetConfiguration, error) {
	for _, v := range []string{req.MinVersion, req.MaxVersion} {
		if !strings.HasPrefix(v, req.MajorVersion+".") {
			return nil, fmt.Errorf("%w: %s is not in %s", ErrVersionOutOfStream, v, req.MajorVersion)
		}
	}

	cfg := &ImageSetConfiguration{
		Kind:          "ImageSetConfiguration",
		APIVersion:    "mirror.openshift.io/v1alpha2",
		StorageConfig: StorageConfig{Local: LocalStorage{Path: storagePath}},
		Mirror: Mirror{
			Platform: MirrorPlatform{
				Channels: []Channel{{
					Name:       "stable-" + req.MajorVersion,
					MinVersion: req.MinVersion,
					MaxVersion: req.MaxVersion,
				}},
				Graph: true,
			},
		},
	}

	for _, cat := range req.Operators {
		if len(cat.Packages) == 0 {
			continue
		}
		op := MirrorOperators{Catalog: cat.Catalog}
		for _, p := range cat.Packages {
			pkg := MirrorPackage{Name: p.Name}
			if p.DefaultChannel != "" {
				pkg.Channels = []PackageChannel{{Name: p.DefaultChannel}}
			}
			op.Packages = append(op.Packages, pkg)
		}
		cfg.Mirror.Operators = append(cfg.Mirror.Operators, op)
	}
	return cfg, nil
}

// CatalogImage is the index image for catalog at the given x.y stream.
func CatalogImage(catalog, majorVersion string) string {
	return fmt.Sprintf("registry.redhat.io/redhat/%s:v%s", catalog, majorVersion)
}
