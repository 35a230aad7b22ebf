package defaults

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/callbridge/callbridge/core"
)

// progressStep is how many bytes pass between progress emissions while a
// body streams.
const progressStep = 64 * 1024

// downloadFile fetches a URL to a local path, emitting progress while the
// body streams.
func (s *set) downloadFile(ctx *core.MessageContext) (string, error) {
	url := ctx.Arg(0)
	destination := ctx.Arg(1)

	resp, err := s.get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	dst, err := os.Create(destination)
	if err != nil {
		return "", fmt.Errorf("could not create file %s: %v", destination, err)
	}
	defer dst.Close()

	reader := newProgressReader(resp.Body, resp.ContentLength, func(percent float64) {
		ctx.SendProgress(core.NewProgress("Downloading", url, percent))
	})

	if _, err := io.Copy(dst, reader); err != nil {
		return "", fmt.Errorf("error during download: %v", err)
	}

	return "file downloaded successfully", nil
}

// getRequest performs a GET request and returns the body as a string.
func (s *set) getRequest(ctx *core.MessageContext) (string, error) {
	url := ctx.Arg(0)

	resp, err := s.get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body strings.Builder
	reader := newProgressReader(resp.Body, resp.ContentLength, func(percent float64) {
		ctx.SendProgress(core.NewProgress("Performing GET", url, percent))
	})

	if _, err := io.Copy(&body, reader); err != nil {
		return "", fmt.Errorf("error during get: %v", err)
	}

	return body.String(), nil
}

func (s *set) get(url string) (*http.Response, error) {
	resp, err := s.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("error during get: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s for %s", resp.Status, url)
	}
	return resp, nil
}

// progressReader wraps a body and reports completion percentage every
// progressStep bytes. An unknown total (ContentLength < 0) reports 0.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	lastEmit int64
	emit     func(percent float64)
}

func newProgressReader(r io.Reader, total int64, emit func(percent float64)) *progressReader {
	return &progressReader{r: r, total: total, emit: emit}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)

	if p.read-p.lastEmit >= progressStep || (err == io.EOF && p.read > p.lastEmit) {
		p.lastEmit = p.read
		p.emit(p.percent())
	}

	return n, err
}

func (p *progressReader) percent() float64 {
	if p.total <= 0 {
		return 0
	}
	return float64(p.read) / float64(p.total) * 100
}
