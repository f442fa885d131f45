package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/vendgb/vendgb-backend/pkg/errors"
	"github.com/vendgb/vendgb-backend/pkg/types"
)

func writeAndDecode(t *testing.T, err error) (int, types.APIError) {
	t.Helper()
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, err)

	var envelope types.ErrorEnvelope
	if decodeErr := json.Unmarshal(rec.Body.Bytes(), &envelope); decodeErr != nil {
		t.Fatalf("decode envelope: %v", decodeErr)
	}
	return rec.Code, envelope.Error
}

func TestWriteErrorDependencySurfacesTypedMessage(t *testing.T) {
	err := pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp: connection refused"),
		"payments temporarily unavailable")

	status, apiErr := writeAndDecode(t, err)
	if status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", status)
	}
	if apiErr.Message != "payments temporarily unavailable" {
		t.Errorf("message = %q, want payments temporarily unavailable", apiErr.Message)
	}
}

func TestWriteErrorInternalHidesCause(t *testing.T) {
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("pq: relation missing"), "loading order")

	status, apiErr := writeAndDecode(t, err)
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", status)
	}
	if apiErr.Message != "internal server error" {
		t.Errorf("message = %q, internal causes must not leak", apiErr.Message)
	}
}

func TestWriteErrorUntypedDefaultsToInternal(t *testing.T) {
	status, apiErr := writeAndDecode(t, errors.New("boom"))
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", status)
	}
	if apiErr.Code != string(pkgerrors.CodeInternal) {
		t.Errorf("code = %s, want %s", apiErr.Code, pkgerrors.CodeInternal)
	}
}
