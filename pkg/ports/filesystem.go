package ports

// FileSystem abstracts the local file operations used for image sources,
// font checks and poster output.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating parent directories.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists reports whether a regular file or directory exists at path.
	Exists(path string) (bool, error)
}
