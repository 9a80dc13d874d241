package agent

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mtconnect-oss/mtcagent/cmn"
	"github.com/mtconnect-oss/mtcagent/response"
)

// parsePath splits an incoming request path into a route Kind, an
// optional device-token list, and (for /asset) an optional asset-id list,
// implementing the routing table of spec.md §6: a bare root or "probe"
// means every device; "/<deviceA>;<deviceB>/<route>" scopes to specific
// devices; "/asset[/<id>;<id>...]" is never device-scoped.
func parsePath(path string) (kind response.QueryKind, deviceTokens, assetIDs []string, ok bool) {
	segs := splitSegments(path)
	if len(segs) == 0 {
		return response.KindProbe, nil, nil, true
	}
	if segs[0] == cmn.RouteAsset {
		if len(segs) > 2 {
			return 0, nil, nil, false
		}
		if len(segs) == 2 {
			assetIDs = strings.Split(segs[1], cmn.AssetSep)
		}
		return response.KindAsset, nil, assetIDs, true
	}
	if kind, recognized := routeKind(segs[0]); recognized && len(segs) == 1 {
		return kind, nil, nil, true
	}
	// segs[0] is a device token list; segs[1], if present, names the route.
	if len(segs) > 2 {
		return 0, nil, nil, false
	}
	deviceTokens = strings.Split(segs[0], cmn.DeviceSep)
	if len(segs) == 1 {
		return response.KindProbe, deviceTokens, nil, true
	}
	kind, recognized := routeKind(segs[1])
	if !recognized {
		return 0, nil, nil, false
	}
	return kind, deviceTokens, nil, true
}

func routeKind(seg string) (response.QueryKind, bool) {
	switch seg {
	case cmn.RouteProbe:
		return response.KindProbe, true
	case cmn.RouteCurrent:
		return response.KindCurrent, true
	case cmn.RouteSample:
		return response.KindSample, true
	case cmn.RouteAsset:
		return response.KindAsset, true
	default:
		return 0, false
	}
}

func splitSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// parseQueryParams fills in the query-string-derived fields of q (at,
// path, interval, from, count, type) and returns every malformed
// parameter as an accumulated INVALID_REQUEST/OUT_OF_RANGE error (spec.md
// §7's multi-error rule for parameter validation).
func parseQueryParams(r *http.Request, q *response.Query) []*cmn.QueryError {
	var errs []*cmn.QueryError
	v := r.URL.Query()

	q.Path = v.Get(cmn.QueryPath)

	if s := v.Get(cmn.QueryAt); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			errs = append(errs, cmn.NewQueryError(cmn.ErrInvalidReq, "at=%q is not a valid sequence number", s))
		} else {
			q.At = &n
		}
	}
	if s := v.Get(cmn.QueryFrom); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			errs = append(errs, cmn.NewQueryError(cmn.ErrInvalidReq, "from=%q is not a valid sequence number", s))
		} else {
			q.From = &n
		}
	}
	if s := v.Get(cmn.QueryCount); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, cmn.NewQueryError(cmn.ErrInvalidReq, "count=%q is not a valid integer", s))
		} else {
			q.Count = &n
		}
	}
	if s := v.Get(cmn.QueryInterval); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, cmn.NewQueryError(cmn.ErrInvalidReq, "interval=%q is not a valid integer", s))
		} else if n < 0 || n > cmn.MaxInterval {
			errs = append(errs, cmn.NewQueryError(cmn.ErrOutOfRange, "interval=%d outside [0, %d]", n, cmn.MaxInterval))
		} else {
			q.Interval = &n
		}
	}
	q.AssetType = v.Get(cmn.QueryType)
	return errs
}
