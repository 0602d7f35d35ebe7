package serving

import (
	"io"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"gitlab.com/caseproxy/caseproxy/internal/resolver"
	"gitlab.com/caseproxy/caseproxy/metrics"
)

type direct struct{}

func (direct) ServeResolvedHTTP(w http.ResponseWriter, r *http.Request, res *resolver.Resolution) error {
	fullPath := handleGZip(w, r, res.RealPath)

	file, err := openNoFollow(fullPath)
	if err != nil {
		return err
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil {
		return err
	}

	// content type comes from the request's resolved name, not the .gz
	// sibling that may actually back the transfer
	contentType, err := detectContentType(res.RealPath)
	if err != nil {
		return err
	}

	metrics.ServedFileSize.Observe(float64(fi.Size()))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(fi.Size(), 10))
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return nil
	}

	if _, err := io.CopyN(w, file, fi.Size()); err != nil {
		// headers are out already; the client likely went away mid-stream
		log.WithError(err).WithField("path", res.Path).Debug("aborted streaming file")
	}

	return nil
}
