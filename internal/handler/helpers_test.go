package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/opensignage/osign-go/internal/authz"
	"github.com/opensignage/osign-go/internal/cache"
	"github.com/opensignage/osign-go/internal/middleware"
	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/scheduler"
	"github.com/opensignage/osign-go/internal/service"
	"github.com/opensignage/osign-go/internal/session"
	"github.com/opensignage/osign-go/internal/testutil"
)

// testSetup builds a handler backed by a temp database with real
// services, the way main wires them.
func testSetup(t *testing.T) (*Handler, *sql.DB, func()) {
	t.Helper()

	db, cleanup := testutil.TestDB(t)

	cacheManager := cache.NewManager(service.FeedTTL)
	engine := authz.New(db, cacheManager.Roles)
	schedules := service.NewScheduleService(db)
	displays := service.NewDisplayService(db, schedules, cacheManager.Feed)

	h := NewHandler(Config{
		DB:        db,
		Engine:    engine,
		Layouts:   service.NewLayoutService(db),
		Schedules: schedules,
		Displays:  displays,
		Events:    service.NewEventService(db),
		Sessions:  session.New(db, true),
		LoginGate: middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()),
		Jobs:      scheduler.NewRegistry(db, testutil.TestLoggerSilent()),
	})
	return h, db, cleanup
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// asUser stores the user in the request context the way LoadUser does.
func asUser(r *http.Request, user model.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, user))
}

// withURLParams adds chi URL parameters to a request.
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// itoa formats an id for use as a chi URL parameter.
func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// decodeData unmarshals the "data" envelope of a success response.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response envelope: %v (body: %s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		t.Fatalf("decoding response data: %v (body: %s)", err, rec.Body.String())
	}
}

// decodeError unmarshals an error response and returns its code.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding error response: %v (body: %s)", err, rec.Body.String())
	}
	return envelope.Error.Code
}

// grantCompanyRole assigns a company role, failing the test on error.
func grantCompanyRole(t *testing.T, h *Handler, userID, companyID int64, role string) {
	t.Helper()
	if err := h.engine.AssignCompanyRole(context.Background(), userID, companyID, role, "test"); err != nil {
		t.Fatalf("AssignCompanyRole: %v", err)
	}
}

// grantDepartmentRole assigns a department role, failing the test on error.
func grantDepartmentRole(t *testing.T, h *Handler, userID, departmentID int64, role string) {
	t.Helper()
	if err := h.engine.AssignDepartmentRole(context.Background(), userID, departmentID, role, "test"); err != nil {
		t.Fatalf("AssignDepartmentRole: %v", err)
	}
}
