/*
Package filesystem wraps the read-side filesystem calls used by the catalog
synchronizer with retry logic for NFS stale file handle errors.

Asset roots are frequently network mounts. A directory listing or file read
that fails with ESTALE (errno 116) is retried with exponential backoff; every
other error is returned immediately.

	entries, err := filesystem.ReadDirWithRetry(root, filesystem.DefaultRetryConfig())
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())

Defaults are 3 retries, 50ms initial backoff and a 500ms cap.

Retry counters are labelled with a volume name resolved through a
VolumeResolver (longest-prefix match over configured mounts) and reported to
the Observer installed with SetObserver.
*/
package filesystem
