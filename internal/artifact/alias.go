package artifact

import (
	"github.com/buildorc/orc/internal/pathmodel"
)

// SwingAlias atomically repoints artifacts_dir/<module>/alias at version's
// directory (§4.7): a temporary symlink is created and then renamed over
// alias, so a reader never observes a missing or half-written alias.
// Grounded on renameio's temp-then-rename pattern (§4.11), specialised here
// to a symlink since renameio itself only atomically replaces regular
// files.
func (l Layout) SwingAlias(module string, version uint64) error {
	alias := l.AliasDir(module)
	tmp, err := alias.WithPostfix("_tmp")
	if err != nil {
		return err
	}
	if pathmodel.Exists(tmp) {
		if err := pathmodel.Remove(tmp); err != nil {
			return err
		}
	}
	if err := pathmodel.CreateDirectorySymlink(l.VersionDir(module, version), tmp); err != nil {
		return err
	}
	return pathmodel.RenameReplace(tmp, alias)
}
