// Package cachepath derives the deterministic cache location of a
// remote resource from its URL and observed content type
package cachepath

import (
	"crypto/sha256"
	"fmt"
	"path"
	"strings"
)

// Bucket is the top-level cache directory an entry is sorted into
type Bucket string

// List of known buckets, Resolve never returns anything else
const (
	BucketImages Bucket = "images"
	BucketAudios Bucket = "audios"
	BucketVideos Bucket = "videos"
	BucketOthers Bucket = "others"
)

const shardLen = 2

var bucketPrefixes = []struct {
	prefix string
	bucket Bucket
}{
	{"image/", BucketImages},
	{"audio/", BucketAudios},
	{"video/", BucketVideos},
}

// BucketFor selects the bucket by the MIME top-level type of the
// given content type, unknown or empty types end up in BucketOthers
func BucketFor(contentType string) Bucket {
	for _, bp := range bucketPrefixes {
		if strings.HasPrefix(contentType, bp.prefix) {
			return bp.bucket
		}
	}

	return BucketOthers
}

// Key returns the lowercase hex SHA-256 of the raw URL bytes. The URL
// is not normalized in any way.
func Key(url string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(url)))
}

// Resolve returns the cache location relative to the cache root:
// <bucket>/<first two chars of key>/<key>
func Resolve(url, contentType string) string {
	h := Key(url)
	return path.Join(string(BucketFor(contentType)), h[0:shardLen], h)
}
