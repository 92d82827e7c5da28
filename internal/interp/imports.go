package interp

import (
	"os"
	"path/filepath"
	"strings"

	"ward/internal/ast"
	"ward/internal/lexer"
	"ward/internal/object"
	"ward/internal/parser"
	"ward/internal/resolver"
)

func (i *Interpreter) execImport(s *ast.ImportStatement, env *object.Environment) object.Object {
	for _, item := range s.Items {
		module, err := i.importModule(item.Module, s.Token.Line)
		if err != nil {
			return err
		}
		alias := item.Alias
		if alias == "" {
			alias = item.Module[len(item.Module)-1]
		}
		// imported names always land in module scope
		i.globals.SetLocal(alias, module)
		if !env.IsModuleScope() {
			env.SetLocal(alias, module)
		}
	}
	return nil
}

func (i *Interpreter) execFromImport(s *ast.FromImportStatement, env *object.Environment) object.Object {
	module, err := i.importModule(s.Module, s.Token.Line)
	if err != nil {
		return err
	}
	bind := func(name string, value object.Object) {
		i.globals.SetLocal(name, value)
		if !env.IsModuleScope() {
			env.SetLocal(name, value)
		}
	}
	for _, item := range s.Items {
		if item.Name == "*" {
			for _, name := range object.SortedNames(module.Attributes) {
				if strings.HasPrefix(name, "_") {
					continue
				}
				bind(name, module.Attributes[name])
			}
			continue
		}
		value, ok := module.Attributes[item.Name]
		if !ok {
			return object.Errorf(object.ImportErrorKind,
				"Module '%s' has no attribute '%s'", strings.Join(s.Module, "."), item.Name).At(s.Token.Line)
		}
		alias := item.Alias
		if alias == "" {
			alias = item.Name
		}
		bind(alias, value)
	}
	return nil
}

// importModule loads a module through the resolver, executing it in a child
// interpreter whose resolver also searches the module's own directory.
// Modules are cached per context by dotted name.
func (i *Interpreter) importModule(parts []string, line int) (*object.Module, *object.Error) {
	dotted := strings.Join(parts, ".")
	if cached, ok := i.modules[dotted]; ok {
		return cached, nil
	}
	if i.loading[dotted] {
		return nil, object.Errorf(object.ImportErrorKind,
			"circular import of module '%s'", dotted).At(line)
	}
	if i.resolver == nil {
		return nil, object.Errorf(object.ImportErrorKind,
			"no module resolver configured, cannot import '%s'", dotted).At(line)
	}
	spec, resolveErr := i.resolver.Resolve(parts)
	if resolveErr != nil {
		return nil, object.Errorf(object.ImportErrorKind, "%v", resolveErr).At(line)
	}
	i.loading[dotted] = true
	defer delete(i.loading, dotted)

	module, loadErr := i.loadModule(spec)
	if loadErr != nil {
		return nil, loadErr.At(line)
	}
	i.resolver.AddPath(filepath.Dir(spec.Path))
	i.modules[dotted] = module
	i.logger.Debug("module loaded", "module", dotted, "path", spec.Path)
	return module, nil
}

func (i *Interpreter) loadModule(spec *resolver.ModuleSpec) (*object.Module, *object.Error) {
	source, readErr := os.ReadFile(spec.Path)
	if readErr != nil {
		return nil, object.Errorf(object.ImportErrorKind, "reading module '%s': %v", spec.Dotted, readErr)
	}
	tokens, lexErr := lexer.Scan(string(source))
	if lexErr != nil {
		return nil, object.Errorf(object.ImportErrorKind, "module '%s': %v", spec.Dotted, lexErr)
	}
	program, parseErr := parser.Parse(tokens)
	if parseErr != nil {
		return nil, object.Errorf(object.ImportErrorKind, "module '%s': %v", spec.Dotted, parseErr)
	}
	child, newErr := New(i.resolver.SpawnChild(filepath.Dir(spec.Path)))
	if newErr != nil {
		return nil, object.Errorf(object.ImportErrorKind, "module '%s': %v", spec.Dotted, newErr)
	}
	child.SetLogger(i.logger)
	child.SetIO(i.stdin, i.stdout)
	// the module cache and the in-progress set span the whole import tree,
	// otherwise a cycle through a child would recurse instead of failing
	child.modules = i.modules
	child.loading = i.loading
	if _, execErr := child.Execute(program); execErr != nil {
		return nil, object.Errorf(object.ImportErrorKind, "module '%s': %v", spec.Dotted, execErr)
	}
	docstring := ""
	if doc, ok := child.globals.GetLocal("__doc__"); ok {
		if s, isStr := doc.(*object.String); isStr {
			docstring = s.Value
		}
	}
	return &object.Module{
		Name:       spec.Dotted,
		Attributes: child.globals.Bindings(),
		Docstring:  docstring,
	}, nil
}
