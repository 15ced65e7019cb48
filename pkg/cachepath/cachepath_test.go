package cachepath

import (
	"path"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexKey = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestBucketFor(t *testing.T) {
	for ct, want := range map[string]Bucket{
		"image/png":                BucketImages,
		"image/jpeg; charset=utf8": BucketImages,
		"audio/mpeg":               BucketAudios,
		"video/mp4":                BucketVideos,
		"text/html":                BucketOthers,
		"application/octet-stream": BucketOthers,
		"":                         BucketOthers,
		"Image/PNG":                BucketOthers,
		"imagex/png":               BucketOthers,
	} {
		assert.Equal(t, want, BucketFor(ct), "content-type %q", ct)
	}
}

func TestKeyKnownDigest(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Key("abc"))
}

func TestResolveLayout(t *testing.T) {
	p := Resolve("https://example.com/a.png", "image/png")

	parts := strings.Split(p, "/")
	require.Len(t, parts, 3)
	assert.Equal(t, "images", parts[0])
	assert.Regexp(t, hexKey, parts[2])
	assert.Equal(t, parts[2][:2], parts[1])
	assert.Equal(t, Key("https://example.com/a.png"), parts[2])
}

func TestResolveDeterministic(t *testing.T) {
	u := "https://example.com/track.mp3?x=1"
	first := Resolve(u, "audio/mpeg")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Resolve(u, "audio/mpeg"))
	}
}

func TestResolveDistinctURLs(t *testing.T) {
	urls := []string{
		"https://example.com/a",
		"https://example.com/a/",
		"https://example.com/a?x=1&y=2",
		"https://example.com/a?y=2&x=1",
		"http://example.com/a",
	}

	seen := map[string]string{}
	for _, u := range urls {
		p := Resolve(u, "image/png")
		if prev, ok := seen[p]; ok {
			t.Fatalf("%q and %q resolved to the same location %q", prev, u, p)
		}
		seen[p] = u
	}
}

func TestResolveKeyIndependentOfContentType(t *testing.T) {
	u := "https://example.com/file"
	img := Resolve(u, "image/gif")
	other := Resolve(u, "")

	assert.NotEqual(t, img, other)
	assert.Equal(t, path.Base(img), path.Base(other))
	assert.Equal(t, "others", strings.Split(other, "/")[0])
}
