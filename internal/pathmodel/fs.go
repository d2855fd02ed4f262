package pathmodel

import (
	"io"
	"os"
	"time"

	"github.com/google/renameio"
)

// Exists reports whether a path exists on disk (following symlinks).
func Exists(a Abs) bool {
	_, err := os.Stat(a.String())
	return err == nil
}

// CreateDirectories creates a and all missing parents, matching
// std::filesystem::create_directories (idempotent on an existing directory).
func CreateDirectories(a Abs) error {
	return os.MkdirAll(a.String(), 0o755)
}

// Copy copies the regular file at src to dst, creating dst's parent
// directory as needed.
func Copy(src, dst Abs) error {
	if err := CreateDirectories(mustParent(dst)); err != nil {
		return err
	}
	in, err := os.Open(src.String())
	if err != nil {
		return err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst.String(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// RenameStrict renames src to dst, failing if dst already exists.
func RenameStrict(src, dst Abs) error {
	if Exists(dst) {
		return &os.LinkError{Op: "renameStrict", Old: src.String(), New: dst.String(), Err: os.ErrExist}
	}
	return os.Rename(src.String(), dst.String())
}

// RenameReplace renames src to dst, atomically replacing dst if it already
// exists. Used for the alias-symlink swing (§4.7): the caller creates a
// temporary symlink and calls RenameReplace to swing it into place, the same
// shape renameio uses for atomic regular-file replacement.
func RenameReplace(src, dst Abs) error {
	return os.Rename(src.String(), dst.String())
}

// Remove removes a single file or empty directory.
func Remove(a Abs) error {
	return os.Remove(a.String())
}

// RemoveAll recursively removes a.
func RemoveAll(a Abs) error {
	return os.RemoveAll(a.String())
}

// CreateSymlink creates a symlink at link pointing at target.
func CreateSymlink(target, link Abs) error {
	return os.Symlink(target.String(), link.String())
}

// CreateDirectorySymlink is CreateSymlink specialised for directory targets;
// on POSIX the two are identical, kept distinct to mirror the API the
// filesystem service exposes to plugins.
func CreateDirectorySymlink(target, link Abs) error {
	return CreateSymlink(target, link)
}

// Touch creates an empty file at a if it does not exist, or updates its
// modification time if it does. It is used for the phase driver's
// .in_progress marker files.
func Touch(a Abs) error {
	f, err := os.OpenFile(a.String(), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	now := time.Now()
	return os.Chtimes(a.String(), now, now)
}

// AtomicWriteFile writes data to a such that readers never observe a partial
// file, grounded on renameio's temp-file-then-rename pattern.
func AtomicWriteFile(a Abs, data []byte, perm os.FileMode) error {
	t, err := renameio.TempFile("", a.String())
	if err != nil {
		return err
	}
	defer t.Cleanup()
	if _, err := t.Write(data); err != nil {
		return err
	}
	if err := os.Chmod(t.Name(), perm); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}

func mustParent(a Abs) Abs {
	p, err := a.Parent()
	if err != nil {
		// a filesystem root has no files to create under it as a sibling;
		// callers never pass one here.
		panic(err)
	}
	return p
}
