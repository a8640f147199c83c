// Package storage provides the blob store the attachment service writes
// uploaded files to. The store is keyed by server-generated filename; deletes
// are allowed to fail without consequence (the attachment record on the task
// is authoritative).
package storage

import (
	"io"
)

// BlobStore abstracts the file-blob collaborator.
type BlobStore interface {
	// Save writes the blob under name and returns the number of bytes written.
	Save(name string, r io.Reader) (int64, error)

	// Open returns a reader over the blob and its size. A missing blob is
	// reported with an error wrapping os.ErrNotExist.
	Open(name string) (io.ReadCloser, int64, error)

	// Delete removes the blob.
	Delete(name string) error
}
