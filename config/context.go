package config

type Context struct {
	Modules  []ModuleI
	Config   *Config
	HomePath string
}

// GetModule returns the module with the given name.
func (ctx *Context) GetModule(name string) (ModuleI, bool) {
	for _, m := range ctx.Modules {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}
