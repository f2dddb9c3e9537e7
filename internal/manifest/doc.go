// Package manifest reads and writes the project files of a mod pack.
//
// # Manifest
//
// minepkg.toml lists the requested mods and the platform version:
//
//	m, err := manifest.Load("minepkg.toml")
//	for _, dep := range m.InterpretedDependencies() {
//	    fmt.Println(dep.Name, dep.Provider, dep.Source)
//	}
//
//	m.AddDependency("jei", "latest")
//	err = m.Save("minepkg.toml")
//
// Dependency sources are interpreted as follows:
//   - "https://..." is downloaded as is (provider https)
//   - "none" is a placeholder (provider dummy)
//   - "provider:source" selects a provider explicitly
//   - anything else is a minepkg version
//
// # Lock File
//
// After a successful install the installed artifacts are recorded:
//
//	lock := manifest.NewLockFile(platform, records)
//	err := lock.Write("modpkg-lock.toml")
package manifest
