package middleware

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"net/http"
)

// HeaderCache reports HIT or MISS on cacheable responses.
const HeaderCache = "X-Cache"

// maxCachedBody bounds what a single cached response may hold.
const maxCachedBody = 1 << 20

// cachedHeaders are the only response headers stored with an entry.
// Anything per-request (CORS, Vary, request ids) is written afresh by the
// outer middleware on every request and must not be replayed on top.
var cachedHeaders = []string{"Content-Type", "Content-Language"}

// storableHeader copies the cachedHeaders present in h.
func storableHeader(h http.Header) http.Header {
	out := make(http.Header, len(cachedHeaders))
	for _, k := range cachedHeaders {
		if vals := h.Values(k); len(vals) > 0 {
			out[k] = append([]string(nil), vals...)
		}
	}
	return out
}

// ResponseCache is the subset of *cache.Cache the middleware needs.
type ResponseCache interface {
	Enabled() bool
	Key(ctx context.Context, parts ...string) (string, error)
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
}

// captureWriter forwards the response to the client and keeps a copy of
// the status and body.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.buf.Len()+len(b) > maxCachedBody {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// Cache serves repeated GETs from rc. Only complete 200 responses are
// stored; the key covers the path and the normalized query string, so
// "?q=mit&limit=5" and "?limit=5&q=mit" share an entry. Cache failures
// never fail the request.
func Cache(rc ResponseCache, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rc == nil || !rc.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key, err := rc.Key(ctx, r.Method, r.URL.Path, r.URL.Query().Encode())
			if err != nil {
				logger.Warn("cache key unavailable", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			if bs, ok := rc.Get(ctx, key); ok {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range storableHeader(hdr) {
						w.Header()[k] = vals
					}
					w.Header().Set(HeaderCache, "HIT")
					w.WriteHeader(status)
					_, _ = w.Write(body)
					return
				}
			}

			w.Header().Set(HeaderCache, "MISS")
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(cw, r)

			if cw.status != http.StatusOK || cw.overflow {
				return
			}
			payload, err := encodePayload(cw.status, storableHeader(w.Header()), cw.buf.Bytes())
			if err != nil {
				logger.Warn("cache encode failed", slog.String("error", err.Error()))
				return
			}
			rc.Set(context.WithoutCancel(ctx), key, payload)
		})
	}
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}
