package mirror

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

var (
	catalogVersionPattern = regexp.MustCompile(`"name":"opnsense","version":"([^"]+)"`)
	metaVersionPattern    = regexp.MustCompile(`(\d{2}\.\d+\.\d+)`)
)

// ExactVersion resolves the exact opnsense package version published on a
// branch. It tries the repository catalog in both shipped formats,
// zstd-compressed packagesite.pkg then xz-compressed packagesite.txz, and
// falls back to the branch manifest when neither catalog can be read.
// Returns "" when nothing resolves.
func ExactVersion(ctx context.Context, probe Probe, base, branch string) string {
	root := fmt.Sprintf("%s/%s/latest", base, branch)

	for _, attempt := range []struct {
		url        string
		decompress func(io.Reader) (io.Reader, error)
	}{
		{root + "/packagesite.pkg", zstdReader},
		{root + "/packagesite.txz", xzReader},
	} {
		body, err := probe.Fetch(ctx, attempt.url)
		if err != nil {
			continue
		}
		if v := versionFromCatalog(body, attempt.decompress); v != "" {
			return v
		}
	}

	// Fallback: the manifest names the current version.
	body, err := probe.Fetch(ctx, root+"/meta.conf")
	if err != nil {
		return ""
	}
	if m := metaVersionPattern.FindSubmatch(body); m != nil {
		return string(m[1])
	}
	return ""
}

// versionFromCatalog decompresses a catalog archive, finds the
// packagesite.yaml entry, and extracts the opnsense package version.
func versionFromCatalog(archive []byte, decompress func(io.Reader) (io.Reader, error)) string {
	raw, err := decompress(bytes.NewReader(archive))
	if err != nil {
		return ""
	}
	tr := tar.NewReader(raw)
	for {
		hdr, err := tr.Next()
		if err != nil {
			return ""
		}
		if hdr.Name != "packagesite.yaml" {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return ""
		}
		if m := catalogVersionPattern.FindSubmatch(content); m != nil {
			return string(m[1])
		}
		return ""
	}
}

func zstdReader(r io.Reader) (io.Reader, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

func xzReader(r io.Reader) (io.Reader, error) {
	return xz.NewReader(r)
}
