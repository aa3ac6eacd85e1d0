package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/guilleojeda/community-content-tracker-sub000/internal/authorizer"
)

// authorizeRequest mirrors the gateway's REQUEST-authorizer event shape.
type authorizeRequest struct {
	MethodArn      string            `json:"methodArn"`
	Headers        map[string]string `json:"headers"`
	RequestContext struct {
		Identity struct {
			SourceIP  string `json:"sourceIp"`
			UserAgent string `json:"userAgent"`
		} `json:"identity"`
	} `json:"requestContext"`
}

type handlers struct {
	authz *authorizer.Authorizer
}

func (h *handlers) authorize(w http.ResponseWriter, r *http.Request) {
	var ev authorizeRequest
	if !readJSON(w, r, &ev) {
		return
	}

	ua := ev.RequestContext.Identity.UserAgent
	if ua == "" {
		ua = headerValue(ev.Headers, "User-Agent")
	}

	dec := h.authz.Authorize(r.Context(), authorizer.Request{
		MethodArn:     ev.MethodArn,
		Authorization: headerValue(ev.Headers, "Authorization"),
		SourceIP:      ev.RequestContext.Identity.SourceIP,
		UserAgent:     ua,
	})

	// The decision itself is the payload; HTTP is always 200, the effect
	// lives inside the policy document.
	writeJSON(w, http.StatusOK, dec)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// headerValue does a case-insensitive lookup into the event's header map.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readJSON decodes the request body tolerantly (unknown fields pass) with a
// 1MB cap.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return false
	}
	return true
}
