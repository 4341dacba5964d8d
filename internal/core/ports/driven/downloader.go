package driven

import "context"

// Downloader fetches remote files into the staging area.
type Downloader interface {
	// Download fetches a single URL and returns the local path of the
	// downloaded file. Content is streamed to disk in bounded chunks.
	Download(ctx context.Context, url string) (string, error)

	// DownloadBatch fetches multiple URLs sequentially, yielding each
	// local path as it completes. Failed URLs are logged and omitted
	// from the sequence, never raised. The channel is closed when all
	// URLs have been attempted or ctx is cancelled.
	DownloadBatch(ctx context.Context, urls []string) <-chan string
}
