// Package python reads the dependencies of Python projects from
// requirements files and pyproject.toml (PEP 621 and Poetry).
package python
