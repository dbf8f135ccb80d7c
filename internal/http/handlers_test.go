package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wishgift/internal/core"
	"wishgift/internal/storage"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"entry not found", core.ErrEntryNotFound, http.StatusNotFound},
		{"lost race", storage.ErrConcurrentUpdate, http.StatusConflict},
		{"lost race wrapped", fmt.Errorf("contribute: %w", storage.ErrConcurrentUpdate), http.StatusConflict},
		{"duplicate user", storage.ErrUserExists, http.StatusConflict},
		{"below price", core.ErrAmountBelowPrice, http.StatusUnprocessableEntity},
		{"missing contact", core.ErrContributorInfoMissing, http.StatusUnprocessableEntity},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/entries/1/contributions", nil)
			writeError(rr, req, tt.err)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestWriteErrorConcurrentUpdateBody(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/entries/1/contributions", nil)
	writeError(rr, req, storage.ErrConcurrentUpdate)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body["msg"], "concurrently") {
		t.Fatalf("msg = %q, want a retry hint", body["msg"])
	}
}
