// Package file provides the reference-counted handles a process
// holds: open files and its working directory. The process core only
// duplicates and releases them; the in-memory tables here are the
// default implementation.
package file

// File is an open-file handle shared between processes.
type File interface {
	Dup() File
	Close()
}

// Inode is a counted reference to an in-core inode, e.g. a cwd.
type Inode interface {
	Dup() Inode
	Put()
}
