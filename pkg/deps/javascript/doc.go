// Package javascript reads the dependencies of npm projects.
//
// # Manifest Parsing
//
// Parse package.json files:
//
//	result, _ := (&javascript.PackageJSON{}).Parse("package.json")
//	ids := result.Identities(false) // skip devDependencies
//
// A package listed in several sections is reported once, with the most
// significant scope (dependencies over peerDependencies over
// devDependencies).
package javascript
