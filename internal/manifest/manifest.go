package manifest

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Providers of an interpreted dependency.
const (
	ProviderMinepkg = "minepkg"
	ProviderHTTPS   = "https"
	ProviderDummy   = "dummy"
	ProviderCurse   = "curse"
)

// Manifest is the content of a minepkg.toml project file.
//
// Example:
//
//	[package]
//	name = "skyblock-pack"
//	version = "1.0.0"
//
//	[requirements]
//	minecraft = "1.12.2"
//
//	[dependencies]
//	jei = "latest"
//	mouse-tweaks = "curse:60089"
type Manifest struct {
	Package      Package           `toml:"package"`
	Requirements Requirements      `toml:"requirements"`
	Dependencies map[string]string `toml:"dependencies"`
	Dev          Dev               `toml:"dev,omitempty"`
}

// Package describes the project itself.
type Package struct {
	Type        string `toml:"type,omitempty"`
	Name        string `toml:"name"`
	Description string `toml:"description,omitempty"`
	Version     string `toml:"version,omitempty"`
}

// Requirements pins the platform the project runs on.
type Requirements struct {
	Minecraft string `toml:"minecraft"`
	Forge     string `toml:"forge,omitempty"`
}

// Dev holds dependencies only needed while developing.
type Dev struct {
	Dependencies map[string]string `toml:"dependencies,omitempty"`
}

// InterpretedDependency is a dependency whose source has been split into
// the provider that fetches it and what that provider needs.
type InterpretedDependency struct {
	// Provider is one of the Provider constants or any prefix written
	// as "provider:source".
	Provider string
	Name     string
	// Source is a version for minepkg, a URL for https, an id for curse.
	Source string
	IsDev  bool
}

// New returns an empty manifest for the named project.
func New(name, minecraft string) *Manifest {
	return &Manifest{
		Package:      Package{Name: name},
		Requirements: Requirements{Minecraft: minecraft},
		Dependencies: map[string]string{},
	}
}

// Load reads a manifest from path.
func Load(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	if m.Dependencies == nil {
		m.Dependencies = map[string]string{}
	}
	return &m, nil
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// AddDependency adds or replaces a dependency.
func (m *Manifest) AddDependency(name, source string) {
	if m.Dependencies == nil {
		m.Dependencies = map[string]string{}
	}
	m.Dependencies[name] = source
}

// InterpretedDependencies returns the dependencies sorted by name.
func (m *Manifest) InterpretedDependencies() []*InterpretedDependency {
	return interpretAll(m.Dependencies, false)
}

// InterpretedDevDependencies returns the dev dependencies sorted by name.
func (m *Manifest) InterpretedDevDependencies() []*InterpretedDependency {
	return interpretAll(m.Dev.Dependencies, true)
}

func interpretAll(deps map[string]string, dev bool) []*InterpretedDependency {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*InterpretedDependency, len(names))
	for i, name := range names {
		out[i] = Interpret(name, deps[name])
		out[i].IsDev = dev
	}
	return out
}

// Interpret splits a single dependency source.
//
// Example:
//
//	Interpret("jei", "latest")        // minepkg, "latest"
//	Interpret("x", "https://a/x.jar") // https, "https://a/x.jar"
//	Interpret("y", "none")            // dummy, "none"
//	Interpret("z", "curse:60089")     // curse, "60089"
func Interpret(name, source string) *InterpretedDependency {
	switch {
	case strings.HasPrefix(source, "https://"):
		return &InterpretedDependency{Name: name, Provider: ProviderHTTPS, Source: source}
	case source == "none":
		return &InterpretedDependency{Name: name, Provider: ProviderDummy, Source: "none"}
	}

	provider, rest, ok := strings.Cut(source, ":")
	if !ok {
		return &InterpretedDependency{Name: name, Provider: ProviderMinepkg, Source: source}
	}
	return &InterpretedDependency{Name: name, Provider: provider, Source: rest}
}
