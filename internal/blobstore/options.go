package blobstore

import "os"

// Options configures a Store.
type Options struct {
	FileMode os.FileMode
	DirMode  os.FileMode
}

// OptionFunc mutates Options.
type OptionFunc func(*Options)

var defaultOpts = Options{
	FileMode: 0o600,
	DirMode:  0o700,
}

func WithFileMode(mode os.FileMode) OptionFunc {
	return func(o *Options) { o.FileMode = mode }
}

func WithDirMode(mode os.FileMode) OptionFunc {
	return func(o *Options) { o.DirMode = mode }
}
