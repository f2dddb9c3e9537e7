// Package ioutils provides file system utilities.
//
// # Write Pool
//
// All artifact bytes are written through a WritePool, a fixed set of
// goroutines that own the blocking file writes:
//
//	pool := ioutils.NewWritePool(4)
//	defer pool.Close()
//
//	f, path, err := ioutils.CreateFile(dir, "jei-1.12.2.jar")
//	_, err = io.Copy(pool.Writer(ctx, f), body)
//
// Failures of the file itself come back as *WriteError so callers can tell
// them apart from read failures of the source.
//
// # Directory Lock
//
//	lock, err := ioutils.LockDir("/srv/minecraft/mods")
//	if errors.Is(err, ioutils.ErrLocked) {
//	    // another install is running
//	}
//	defer lock.Unlock()
package ioutils
