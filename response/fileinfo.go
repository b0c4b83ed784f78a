// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package response

import (
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// FileInfo is the outcome of resolving a request path.
type FileInfo struct {
	// Path is the document root joined with the raw request path.
	// It is only used for logging.
	Path string

	Size int64

	// Servable is true only for regular files. Directories, devices
	// and symbolic links are never servable.
	Servable bool
}

// NewFilesystem returns a filesystem which resolves every name below
// root, including names that traverse symbolic links.
func NewFilesystem(root string) billy.Filesystem {
	return osfs.New(root, osfs.WithBoundOS())
}

// Lookup resolves path on fs without following a final symbolic link.
// Names which do not exist, or which would resolve above the root of
// fs, are reported as not servable.
func Lookup(fs billy.Filesystem, documentRoot, path string) FileInfo {
	info := FileInfo{
		Path: documentRoot + "/" + path,
	}

	fi, err := fs.Lstat(relative(path))
	if err != nil {
		return info
	}
	if !fi.Mode().IsRegular() {
		return info
	}
	info.Size = fi.Size()
	info.Servable = true
	return info
}

func relative(path string) string {
	p := strings.TrimLeft(path, "/")
	if p == "" {
		return "."
	}
	return p
}
