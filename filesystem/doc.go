// Package filesystem implements a sandboxed filesystem. Every Filesystem is
// bound to a root directory and a fixed set of capabilities, and each
// operation runs its sub-path through a Guard before any storage is touched:
//
//	fs, err := filesystem.New("/srv/data", filesystem.WithCapabilities(filesystem.Capabilities{Readable: true}))
//	...
//	f, err := fs.OpenFile("configs/app.yml")
//
// Storage is provided by a Backend. The unix backend anchors every syscall to
// a directory descriptor of the root, the os backend uses go-billy's bound
// osfs and the memory backend keeps everything in memory. Requests needing a
// capability the filesystem was not created with are refused with
// ErrCodeCapability before they reach the backend.
package filesystem
