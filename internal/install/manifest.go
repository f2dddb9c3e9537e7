package install

import (
	"fmt"
	"net/url"
	"path"

	"github.com/modpkg/modpkg/internal/manifest"
	"github.com/modpkg/modpkg/internal/model"
)

// FromManifest builds the request for the dependencies of m.
//
// minepkg and curse dependencies are resolved by id (curse) or by name
// (minepkg); https dependencies are pinned and downloaded as is; dummy
// dependencies are skipped.
func FromManifest(m *manifest.Manifest, targetDir string) (Request, error) {
	req := Request{TargetDir: targetDir}

	if m.Requirements.Minecraft != "" {
		platform, err := model.ParsePlatformVersion(m.Requirements.Minecraft)
		if err != nil {
			return req, err
		}
		req.Platform = platform
	}

	for _, dep := range m.InterpretedDependencies() {
		switch dep.Provider {
		case manifest.ProviderDummy:
			continue
		case manifest.ProviderHTTPS:
			u, err := url.Parse(dep.Source)
			if err != nil {
				return req, fmt.Errorf("dependency %s: %w", dep.Name, err)
			}
			req.Pinned = append(req.Pinned, &model.ModRecord{
				ModID:       dep.Name,
				DisplayName: dep.Name,
				FileName:    path.Base(u.Path),
				DownloadURL: dep.Source,
			})
		case manifest.ProviderMinepkg:
			req.Mods = append(req.Mods, dep.Name)
		case manifest.ProviderCurse:
			req.Mods = append(req.Mods, dep.Source)
		default:
			return req, fmt.Errorf("dependency %s: unknown provider %q", dep.Name, dep.Provider)
		}
	}
	return req, nil
}
