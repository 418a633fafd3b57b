package resolve

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqsolve/pkg/errors"
	"github.com/matzehuels/reqsolve/pkg/httputil"
	"github.com/matzehuels/reqsolve/pkg/index"
	"github.com/matzehuels/reqsolve/pkg/req"
)

// FilePreparer fetches chosen distribution files into the run's build
// directory and verifies declared hashes against the downloaded bytes.
//
// Requirements without hash options are left unfetched: resolution only
// needs the artifact when its content must be proven.
type FilePreparer struct {
	Session *httputil.Session
	Build   *BuildDir
	Tracker *Tracker
	Logger  *log.Logger
}

// Prepare fetches c for rq when rq declares hashes, verifying the file
// against them. A digest mismatch fails with HASH_MISMATCH.
func (p *FilePreparer) Prepare(ctx context.Context, rq req.Requirement, c index.Candidate) error {
	if err := p.Tracker.Enter(rq.Name); err != nil {
		return err
	}
	defer p.Tracker.Exit(rq.Name)

	if !rq.HasHashOptions() {
		return nil
	}

	body, err := p.open(ctx, c.Link)
	if err != nil {
		return err
	}
	defer body.Close()

	dest := filepath.Join(p.Build.Path(), c.Link.Filename)
	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResource, err, "create %s", dest)
	}
	defer out.Close()

	hashers := newHashers(rq.HashAlgorithms())
	writers := []io.Writer{out}
	for _, h := range hashers {
		writers = append(writers, h.hash)
	}
	if _, err := io.Copy(io.MultiWriter(writers...), body); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "download %s", c.Link.URL)
	}

	return verifyHashes(rq, c, hashers)
}

func (p *FilePreparer) open(ctx context.Context, link index.Link) (io.ReadCloser, error) {
	if path, ok := strings.CutPrefix(link.URL, "file://"); ok {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return f, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build request %s", link.URL)
	}
	var body io.ReadCloser
	err = httputil.RetryWithBackoff(ctx, func() error {
		var err error
		body, err = p.Session.Get(httpReq)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

type namedHasher struct {
	alg  string
	hash hash.Hash
}

func newHashers(algs []string) []namedHasher {
	var hs []namedHasher
	for _, alg := range algs {
		switch alg {
		case "sha256":
			hs = append(hs, namedHasher{alg, sha256.New()})
		case "sha384":
			hs = append(hs, namedHasher{alg, sha512.New384()})
		case "sha512":
			hs = append(hs, namedHasher{alg, sha512.New()})
		}
	}
	return hs
}

// verifyHashes passes when the file matches any declared digest of any
// algorithm.
func verifyHashes(rq req.Requirement, c index.Candidate, hashers []namedHasher) error {
	var got []string
	for _, h := range hashers {
		digest := hex.EncodeToString(h.hash.Sum(nil))
		for _, want := range rq.Hashes[h.alg] {
			if digest == want {
				return nil
			}
		}
		got = append(got, h.alg+":"+digest)
	}
	return errors.New(errors.ErrCodeHashMismatch,
		"%s does not match any declared hash for %s (got %s)",
		c.Link.Filename, rq.Name, strings.Join(got, ", "))
}
