// Package blobstore keeps asset payloads on disk, one file per content id.
//
// Files live under a two-level shard (blobs/ab/cd/<id>) and are written to
// a temp directory first, then renamed into place, so a payload either
// fully exists or not at all. Renaming identical content over an existing
// file is harmless, which makes concurrent writes of the same id safe.
//
// Each file starts with a one-byte compression tag and the uvarint length
// of the uncompressed payload. Text-like content is stored with zstd,
// binary content with LZ4, and already-compressed images as is.
package blobstore
