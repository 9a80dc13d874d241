package agent

import (
	"crypto/md5"
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/golang/glog"

	"github.com/mtconnect-oss/mtcagent/cmn"
	"github.com/mtconnect-oss/mtcagent/response"
)

func (s *server) handleMTConnect(w http.ResponseWriter, r *http.Request) {
	kind, deviceTokens, assetIDs, ok := parsePath(r.URL.Path)
	if !ok {
		doc := s.assembler.ErrDoc([]*cmn.QueryError{cmn.NewQueryError(cmn.ErrInvalidReq, "unrecognized route %q", r.URL.Path)})
		s.writeDocument(w, doc, "unknown")
		return
	}

	q := response.Query{Kind: kind, DeviceTokens: deviceTokens, AssetIDs: assetIDs}
	q.ParamErrors = parseQueryParams(r, &q)
	route := routeLabel(kind)

	if q.Interval != nil && q.Kind != response.KindAsset && q.Kind != response.KindProbe {
		s.handleStream(w, r, q, route)
		return
	}

	doc := s.assembler.Assemble(q)
	s.writeDocument(w, doc, route)
}

func routeLabel(kind response.QueryKind) string {
	switch kind {
	case response.KindProbe:
		return cmn.RouteProbe
	case response.KindCurrent:
		return cmn.RouteCurrent
	case response.KindSample:
		return cmn.RouteSample
	case response.KindAsset:
		return cmn.RouteAsset
	default:
		return "unknown"
	}
}

// writeDocument serializes doc with a Content-MD5 trailer computed while
// the body streams out, rather than buffering the document twice
// (spec.md §6).
func (s *server) writeDocument(w http.ResponseWriter, doc *response.Element, route string) {
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Trailer", "Content-MD5")

	hasher := md5.New()
	if err := response.Write(io.MultiWriter(w, hasher), doc); err != nil {
		glog.Warningf("http: write response: %v", err)
	}
	w.Header().Set("Content-MD5", base64.StdEncoding.EncodeToString(hasher.Sum(nil)))

	status := "ok"
	if doc.Name == "MTConnectError" {
		status = "error"
	}
	s.metrics.HTTPRequests.WithLabelValues(route, status).Inc()
}

// handleStream serves the interval-based multipart/x-mixed-replace
// response spec.md §6 requires for `interval`-bearing current/sample
// requests, honoring client disconnect via the request's context.
func (s *server) handleStream(w http.ResponseWriter, r *http.Request, q response.Query, route string) {
	devices, filter, errs := s.assembler.Validate(q)
	if len(errs) > 0 {
		s.writeDocument(w, s.assembler.ErrDoc(errs), route)
		return
	}

	const boundary = "mtcagent-boundary"
	w.Header().Set("Content-Type", `multipart/x-mixed-replace; boundary=`+boundary)
	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.(http.Flusher)

	mw := multipart.NewWriter(w)
	mw.SetBoundary(boundary)
	defer mw.Close()

	interval := time.Duration(*q.Interval) * time.Millisecond
	if interval <= 0 {
		interval = time.Millisecond
	}

	emit := func(doc *response.Element) error {
		part, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/xml"}})
		if err != nil {
			return err
		}
		if err := response.Write(part, doc); err != nil {
			return err
		}
		status := "ok"
		if doc.Name == "MTConnectError" {
			status = "error"
		}
		s.metrics.HTTPRequests.WithLabelValues(route, status).Inc()
		if canFlush {
			flusher.Flush()
		}
		return nil
	}

	var err error
	if q.Kind == response.KindCurrent {
		err = s.assembler.StreamCurrent(r.Context(), devices, filter, interval, emit)
	} else {
		err = s.assembler.StreamSample(r.Context(), q, devices, filter, interval, emit)
	}
	if err != nil && r.Context().Err() == nil {
		glog.Warningf("http: stream %s: %v", route, err)
	}
}
