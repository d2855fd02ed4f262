package artifact

import (
	"github.com/buildorc/orc/internal/pathmodel"
)

// PurgeStale removes every version directory of module older than version
// (§3 invariant 6, §4.7): called once export-libraries has succeeded for
// version. Entries under the module directory that don't parse as
// <module>@<v> (the alias symlink, anything else) are left untouched.
func PurgeStale(l Layout, module string, version uint64) error {
	moduleDir := l.ModuleDir(module)
	if !pathmodel.Exists(moduleDir) {
		return nil
	}
	never := func(pathmodel.Abs, int) bool { return false }
	children, err := pathmodel.Find(moduleDir, func(pathmodel.Abs, int) bool { return true }, never)
	if err != nil {
		return err
	}
	for _, child := range children {
		name, v, ok := ParseVersionedName(child.Base())
		if !ok || name != module {
			continue
		}
		if v < version {
			if err := pathmodel.RemoveAll(child); err != nil {
				return err
			}
		}
	}
	return nil
}
