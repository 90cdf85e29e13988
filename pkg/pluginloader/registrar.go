package pluginloader

import "github.com/elementio/elementio/pkg/element"

// Registrar is handed to a plugin's exported Init function so it can
// declare itself and its elements without reaching into global state
// directly.
type Registrar struct {
	name             string
	version          string
	authors          []string
	requiredFramework string
	elements         []element.Descriptor
}

func (r *Registrar) SetName(name string) *Registrar {
	r.name = name
	return r
}

func (r *Registrar) SetVersion(version string) *Registrar {
	r.version = version
	return r
}

func (r *Registrar) SetAuthors(authors ...string) *Registrar {
	r.authors = authors
	return r
}

// RequireFramework declares the framework version this plugin was
// built against, checked caret-compatible at load time.
func (r *Registrar) RequireFramework(version string) *Registrar {
	r.requiredFramework = version
	return r
}

func (r *Registrar) RegisterElement(d element.Descriptor) *Registrar {
	r.elements = append(r.elements, d)
	return r
}

// Loaded describes a successfully initialized plugin, returned to
// callers of Loader.LoadDir for diagnostics (cmd logs each one).
type Loaded struct {
	Name         string
	Version      string
	Authors      []string
	SourceFile   string
	ElementNames []string
}
