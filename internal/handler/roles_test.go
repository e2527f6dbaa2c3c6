package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/testutil"
)

func TestAssignCompanyRole(t *testing.T) {
	h, db, cleanup := testSetup(t)
	defer cleanup()

	acme := testutil.CreateCompany(t, db, "Acme", "acme")
	admin := testutil.CreateUser(t, db, "admin@example.com")
	target := testutil.CreateUser(t, db, "newbie@example.com")
	grantCompanyRole(t, h, admin.ID, acme.ID, model.CompanyRoleAdmin)

	req := asUser(jsonRequest(t, http.MethodPost, "/api/companies/1/roles", RoleRequest{
		UserID: target.ID,
		Role:   model.CompanyRoleViewer,
	}), admin)
	req = withURLParams(req, map[string]string{"companyID": itoa(acme.ID)})
	rec := httptest.NewRecorder()
	h.AssignCompanyRole(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 (body: %s)", rec.Code, rec.Body.String())
	}

	allowed, err := h.engine.CanAccessCompany(context.Background(), target.ID, acme.ID)
	if err != nil {
		t.Fatalf("CanAccessCompany: %v", err)
	}
	if !allowed {
		t.Error("target should have company access after role grant")
	}
}

func TestAssignCompanyRoleInvalidRole(t *testing.T) {
	h, db, cleanup := testSetup(t)
	defer cleanup()

	acme := testutil.CreateCompany(t, db, "Acme", "acme")
	admin := testutil.CreateUser(t, db, "admin@example.com")
	target := testutil.CreateUser(t, db, "newbie@example.com")
	grantCompanyRole(t, h, admin.ID, acme.ID, model.CompanyRoleAdmin)

	req := asUser(jsonRequest(t, http.MethodPost, "/api/companies/1/roles", RoleRequest{
		UserID: target.ID,
		Role:   "superuser",
	}), admin)
	req = withURLParams(req, map[string]string{"companyID": itoa(acme.ID)})
	rec := httptest.NewRecorder()
	h.AssignCompanyRole(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestAssignCompanyRoleViewerForbidden(t *testing.T) {
	h, db, cleanup := testSetup(t)
	defer cleanup()

	acme := testutil.CreateCompany(t, db, "Acme", "acme")
	viewer := testutil.CreateUser(t, db, "viewer@example.com")
	target := testutil.CreateUser(t, db, "newbie@example.com")
	grantCompanyRole(t, h, viewer.ID, acme.ID, model.CompanyRoleViewer)

	req := asUser(jsonRequest(t, http.MethodPost, "/api/companies/1/roles", RoleRequest{
		UserID: target.ID,
		Role:   model.CompanyRoleViewer,
	}), viewer)
	req = withURLParams(req, map[string]string{"companyID": itoa(acme.ID)})
	rec := httptest.NewRecorder()
	h.AssignCompanyRole(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRemoveCompanyRole(t *testing.T) {
	h, db, cleanup := testSetup(t)
	defer cleanup()

	acme := testutil.CreateCompany(t, db, "Acme", "acme")
	admin := testutil.CreateUser(t, db, "admin@example.com")
	target := testutil.CreateUser(t, db, "leaver@example.com")
	grantCompanyRole(t, h, admin.ID, acme.ID, model.CompanyRoleAdmin)
	grantCompanyRole(t, h, target.ID, acme.ID, model.CompanyRoleViewer)

	req := asUser(jsonRequest(t, http.MethodDelete, "/api/companies/1/roles/2", nil), admin)
	req = withURLParams(req, map[string]string{
		"companyID": itoa(acme.ID),
		"userID":    itoa(target.ID),
	})
	rec := httptest.NewRecorder()
	h.RemoveCompanyRole(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	allowed, err := h.engine.CanAccessCompany(context.Background(), target.ID, acme.ID)
	if err != nil {
		t.Fatalf("CanAccessCompany: %v", err)
	}
	if allowed {
		t.Error("target should lose company access after role removal")
	}
}

func TestAssignDepartmentRoleByManager(t *testing.T) {
	h, db, cleanup := testSetup(t)
	defer cleanup()
	fx := newPageFixture(t, h)

	target := testutil.CreateUser(t, db, "hire@example.com")

	req := asUser(jsonRequest(t, http.MethodPost, "/api/departments/1/roles", RoleRequest{
		UserID: target.ID,
		Role:   model.DepartmentRoleEditor,
	}), fx.manager)
	req = withURLParams(req, map[string]string{"departmentID": itoa(fx.department.ID)})
	rec := httptest.NewRecorder()
	h.AssignDepartmentRole(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 (body: %s)", rec.Code, rec.Body.String())
	}

	// A department grant auto-provisions company access
	allowed, err := h.engine.CanEditInDepartment(context.Background(), target.ID, fx.department.ID)
	if err != nil {
		t.Fatalf("CanEditInDepartment: %v", err)
	}
	if !allowed {
		t.Error("target should be able to edit after editor grant")
	}
	allowed, err = h.engine.CanAccessCompany(context.Background(), target.ID, fx.company.ID)
	if err != nil {
		t.Fatalf("CanAccessCompany: %v", err)
	}
	if !allowed {
		t.Error("department grant should imply company access")
	}
}

func TestAssignDepartmentRoleEditorForbidden(t *testing.T) {
	h, db, cleanup := testSetup(t)
	defer cleanup()
	fx := newPageFixture(t, h)

	target := testutil.CreateUser(t, db, "hire@example.com")

	req := asUser(jsonRequest(t, http.MethodPost, "/api/departments/1/roles", RoleRequest{
		UserID: target.ID,
		Role:   model.DepartmentRoleViewer,
	}), fx.editor)
	req = withURLParams(req, map[string]string{"departmentID": itoa(fx.department.ID)})
	rec := httptest.NewRecorder()
	h.AssignDepartmentRole(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRemoveDepartmentRoleKeepsCompanyRole(t *testing.T) {
	h, _, cleanup := testSetup(t)
	defer cleanup()
	fx := newPageFixture(t, h)

	req := asUser(jsonRequest(t, http.MethodDelete, "/api/departments/1/roles/2", nil), fx.manager)
	req = withURLParams(req, map[string]string{
		"departmentID": itoa(fx.department.ID),
		"userID":       itoa(fx.editor.ID),
	})
	rec := httptest.NewRecorder()
	h.RemoveDepartmentRole(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	ctx := context.Background()
	allowed, err := h.engine.CanEditInDepartment(ctx, fx.editor.ID, fx.department.ID)
	if err != nil {
		t.Fatalf("CanEditInDepartment: %v", err)
	}
	if allowed {
		t.Error("editor should lose edit rights after role removal")
	}
	allowed, err = h.engine.CanAccessCompany(ctx, fx.editor.ID, fx.company.ID)
	if err != nil {
		t.Fatalf("CanAccessCompany: %v", err)
	}
	if !allowed {
		t.Error("company role should survive department role removal")
	}
}
