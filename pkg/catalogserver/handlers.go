package catalogserver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/nimburion/i18nloader/pkg/i18n/fetch"
	"github.com/nimburion/i18nloader/pkg/security"
	"github.com/nimburion/i18nloader/pkg/version"
)

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	catalog, err := fetch.LoadFromDir(s.cfg.Root, name)
	switch {
	case errors.Is(err, security.ErrInvalidName), errors.Is(err, security.ErrPathTraversal):
		writeError(w, http.StatusBadRequest, "invalid_name", err.Error())
		return
	case errors.Is(err, fetch.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no catalog for "+name)
		return
	case err != nil:
		s.log.Error("failed to load catalog", "name", name, "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "catalog_unreadable", "catalog could not be read")
		return
	}

	body, err := json.Marshal(catalog)
	if err != nil {
		s.log.Error("failed to encode catalog", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "catalog_unreadable", "catalog could not be encoded")
		return
	}

	etag := computeETag(body)
	h := w.Header()
	h.Set("ETag", etag)
	h.Set("Cache-Control", cacheControl(s.cfg.CacheMaxAge.Seconds()))
	h.Set("Access-Control-Allow-Origin", "*")
	if ifNoneMatchSatisfied(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	result := s.health.Check(r.Context())
	status := http.StatusOK
	if !result.IsHealthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, result)
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.Current(s.cfg.ServiceName))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func cacheControl(maxAgeSeconds float64) string {
	if maxAgeSeconds < 1 {
		return "no-cache"
	}
	return "public, max-age=" + strconv.Itoa(int(maxAgeSeconds))
}

func computeETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}

func ifNoneMatchSatisfied(r *http.Request, etag string) bool {
	header := strings.TrimSpace(r.Header.Get("If-None-Match"))
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	for _, token := range strings.Split(header, ",") {
		if strings.TrimSpace(token) == etag {
			return true
		}
	}
	return false
}
