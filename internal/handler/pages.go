package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/opensignage/osign-go/internal/middleware"
	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/store"
	"github.com/opensignage/osign-go/internal/util"
)

// PageRequest is the request body for creating or updating a page.
type PageRequest struct {
	Title    string `json:"title"`
	Slug     string `json:"slug,omitempty"`
	LayoutID *int64 `json:"layout_id,omitempty"`
	Active   *bool  `json:"active,omitempty"`
}

// PageDetail bundles a page with its section links and content
// placements.
type PageDetail struct {
	model.Page
	Sections []model.PageSection `json:"sections"`
	Contents []model.PageContent `json:"contents"`
}

// PageContentRequest is the request body for creating or updating a
// content placement.
type PageContentRequest struct {
	SectionPosition string `json:"section_position"`
	ContentType     string `json:"content_type"`
	ContentRef      string `json:"content_ref"`
	DisplayOrder    int64  `json:"display_order"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// PageSectionRequest is the request body for linking a page to a layout
// section.
type PageSectionRequest struct {
	SectionID int64 `json:"section_id"`
}

func validContentType(t string) bool {
	switch t {
	case model.ContentTypeImage, model.ContentTypeVideo, model.ContentTypeHTML, model.ContentTypeURL:
		return true
	}
	return false
}

// validatePageLayout checks that a layout referenced by a page belongs to
// the department's company. Returns (nullable id, field error message).
func (h *Handler) validatePageLayout(r *http.Request, layoutID *int64, departmentID int64) (sql.NullInt64, string) {
	if layoutID == nil {
		return sql.NullInt64{}, ""
	}
	ctx := r.Context()

	department, err := h.queries.GetDepartmentByID(ctx, departmentID)
	if err != nil {
		return sql.NullInt64{}, "department could not be loaded"
	}
	lay, err := h.queries.GetLayoutByID(ctx, *layoutID)
	if err != nil {
		return sql.NullInt64{}, "layout not found"
	}
	if lay.CompanyID != department.CompanyID {
		return sql.NullInt64{}, "layout belongs to another company"
	}
	return sql.NullInt64{Int64: *layoutID, Valid: true}, ""
}

// ListPages handles GET /api/departments/{departmentID}/pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	departmentID, ok := requireIDParam(w, r, "departmentID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanAccessDepartment(ctx, userID, departmentID)
	if !checkAccess(w, allowed, err) {
		return
	}

	pages, err := h.queries.ListPagesByDepartment(ctx, departmentID)
	if err != nil {
		WriteInternalError(w, "Failed to list pages")
		return
	}
	WriteSuccess(w, pages, &Meta{Total: len(pages)})
}

// CreatePage handles POST /api/departments/{departmentID}/pages.
// Requires editor.
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	departmentID, ok := requireIDParam(w, r, "departmentID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanEditInDepartment(ctx, userID, departmentID)
	if !checkAccess(w, allowed, err) {
		return
	}

	var req PageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		WriteValidationError(w, map[string]string{"title": "is required"})
		return
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = util.Slugify(req.Title)
	}
	if !util.IsValidSlug(slug) {
		WriteValidationError(w, map[string]string{"slug": "must be lowercase alphanumerics and single hyphens"})
		return
	}

	layoutRef, layoutErr := h.validatePageLayout(r, req.LayoutID, departmentID)
	if layoutErr != "" {
		WriteValidationError(w, map[string]string{"layout_id": layoutErr})
		return
	}

	now := time.Now()
	page, err := h.queries.CreatePage(ctx, store.CreatePageParams{
		DepartmentID: departmentID,
		LayoutID:     layoutRef,
		Title:        req.Title,
		Slug:         slug,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create page")
		return
	}

	h.displays.InvalidateFeed(ctx, departmentID)
	WriteCreated(w, page)
}

// requirePage loads a page and checks the given page-level permission.
func (h *Handler) requirePage(w http.ResponseWriter, r *http.Request, check func(userID, pageID int64) (bool, error)) (model.Page, bool) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	pageID, ok := requireIDParam(w, r, "pageID")
	if !ok {
		return model.Page{}, false
	}

	page, err := h.queries.GetPageByID(ctx, pageID)
	if err != nil {
		notFoundOr(w, err, "page", sql.ErrNoRows)
		return model.Page{}, false
	}

	allowed, err := check(userID, pageID)
	if !checkAccess(w, allowed, err) {
		return model.Page{}, false
	}
	return page, true
}

// GetPage handles GET /api/pages/{pageID}, returning the page with its
// section links and contents.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, ok := h.requirePage(w, r, func(userID, pageID int64) (bool, error) {
		return h.engine.CanAccessPage(ctx, userID, pageID)
	})
	if !ok {
		return
	}

	sections, err := h.queries.ListPageSections(ctx, page.ID)
	if err != nil {
		WriteInternalError(w, "Failed to load page sections")
		return
	}
	contents, err := h.queries.ListPageContents(ctx, page.ID)
	if err != nil {
		WriteInternalError(w, "Failed to load page contents")
		return
	}
	WriteSuccess(w, PageDetail{Page: page, Sections: sections, Contents: contents}, nil)
}

// UpdatePage handles PUT /api/pages/{pageID}. Requires editor.
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, ok := h.requirePage(w, r, func(userID, pageID int64) (bool, error) {
		return h.engine.CanEditPage(ctx, userID, pageID)
	})
	if !ok {
		return
	}

	var req PageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = page.Title
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = page.Slug
	}
	if !util.IsValidSlug(slug) {
		WriteValidationError(w, map[string]string{"slug": "must be lowercase alphanumerics and single hyphens"})
		return
	}
	active := page.Active
	if req.Active != nil {
		active = *req.Active
	}

	layoutRef := page.LayoutID
	if req.LayoutID != nil {
		if *req.LayoutID == 0 {
			// Explicit zero detaches the layout
			layoutRef = sql.NullInt64{}
		} else {
			ref, layoutErr := h.validatePageLayout(r, req.LayoutID, page.DepartmentID)
			if layoutErr != "" {
				WriteValidationError(w, map[string]string{"layout_id": layoutErr})
				return
			}
			layoutRef = ref
		}
	}

	if err := h.queries.UpdatePage(ctx, store.UpdatePageParams{
		ID:        page.ID,
		LayoutID:  layoutRef,
		Title:     title,
		Slug:      slug,
		Active:    active,
		UpdatedAt: time.Now(),
	}); err != nil {
		WriteInternalError(w, "Failed to update page")
		return
	}

	h.displays.InvalidateFeed(ctx, page.DepartmentID)

	updated, err := h.queries.GetPageByID(ctx, page.ID)
	if err != nil {
		WriteInternalError(w, "Failed to update page")
		return
	}
	WriteSuccess(w, updated, nil)
}

// DeletePage handles DELETE /api/pages/{pageID}. Requires department
// manager; section links, contents, and schedules cascade.
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	page, ok := h.requirePage(w, r, func(userID, pageID int64) (bool, error) {
		return h.engine.CanModifyPage(ctx, userID, pageID)
	})
	if !ok {
		return
	}

	if err := h.queries.DeletePage(ctx, page.ID); err != nil {
		WriteInternalError(w, "Failed to delete page")
		return
	}

	slog.Warn("page deleted",
		"category", model.EventCategoryPage,
		"user_id", userID,
		"page_id", page.ID,
		"department_id", page.DepartmentID,
	)
	h.displays.InvalidateFeed(ctx, page.DepartmentID)
	WriteNoContent(w)
}

// AttachPageSection handles POST /api/pages/{pageID}/sections, linking
// the page to one of its layout's sections. Requires editor.
func (h *Handler) AttachPageSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, ok := h.requirePage(w, r, func(userID, pageID int64) (bool, error) {
		return h.engine.CanEditPage(ctx, userID, pageID)
	})
	if !ok {
		return
	}

	var req PageSectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SectionID <= 0 {
		WriteValidationError(w, map[string]string{"section_id": "is required"})
		return
	}
	if !page.LayoutID.Valid {
		WriteValidationError(w, map[string]string{"section_id": "page has no layout"})
		return
	}

	sections, err := h.queries.ListLayoutSections(ctx, page.LayoutID.Int64)
	if err != nil {
		WriteInternalError(w, "Failed to load layout sections")
		return
	}
	found := false
	for _, s := range sections {
		if s.ID == req.SectionID {
			found = true
			break
		}
	}
	if !found {
		WriteValidationError(w, map[string]string{"section_id": "does not belong to the page's layout"})
		return
	}

	link, err := h.queries.CreatePageSection(ctx, page.ID, req.SectionID, time.Now())
	if err != nil {
		WriteConflict(w, "Section is already linked to this page")
		return
	}

	h.displays.InvalidateFeed(ctx, page.DepartmentID)
	WriteCreated(w, link)
}

// DetachPageSection handles DELETE /api/pages/{pageID}/sections/{linkID}.
func (h *Handler) DetachPageSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, ok := h.requirePage(w, r, func(userID, pageID int64) (bool, error) {
		return h.engine.CanEditPage(ctx, userID, pageID)
	})
	if !ok {
		return
	}
	linkID, ok := requireIDParam(w, r, "linkID")
	if !ok {
		return
	}

	links, err := h.queries.ListPageSections(ctx, page.ID)
	if err != nil {
		WriteInternalError(w, "Failed to load page sections")
		return
	}
	found := false
	for _, l := range links {
		if l.ID == linkID {
			found = true
			break
		}
	}
	if !found {
		WriteNotFound(w, "section link not found")
		return
	}

	if err := h.queries.DeletePageSection(ctx, linkID); err != nil {
		WriteInternalError(w, "Failed to detach section")
		return
	}

	h.displays.InvalidateFeed(ctx, page.DepartmentID)
	WriteNoContent(w)
}

// validateContentRequest checks the user-editable content fields.
func validateContentRequest(req PageContentRequest) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(req.SectionPosition) == "" {
		errs["section_position"] = "is required"
	}
	if !validContentType(req.ContentType) {
		errs["content_type"] = "must be one of image, video, html, url"
	}
	if strings.TrimSpace(req.ContentRef) == "" {
		errs["content_ref"] = "is required"
	}
	if req.DurationSeconds <= 0 {
		errs["duration_seconds"] = "must be positive"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// CreatePageContent handles POST /api/pages/{pageID}/contents. Requires
// editor.
func (h *Handler) CreatePageContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, ok := h.requirePage(w, r, func(userID, pageID int64) (bool, error) {
		return h.engine.CanEditPage(ctx, userID, pageID)
	})
	if !ok {
		return
	}

	var req PageContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validateContentRequest(req); errs != nil {
		WriteValidationError(w, errs)
		return
	}

	now := time.Now()
	content, err := h.queries.CreatePageContent(ctx, store.CreatePageContentParams{
		PageID:          page.ID,
		SectionPosition: strings.TrimSpace(req.SectionPosition),
		ContentType:     req.ContentType,
		ContentRef:      strings.TrimSpace(req.ContentRef),
		DisplayOrder:    req.DisplayOrder,
		DurationSeconds: req.DurationSeconds,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create content")
		return
	}

	h.displays.InvalidateFeed(ctx, page.DepartmentID)
	WriteCreated(w, content)
}

// requirePageContent loads a content row and checks editor access on its
// owning page.
func (h *Handler) requirePageContent(w http.ResponseWriter, r *http.Request) (model.PageContent, model.Page, bool) {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	contentID, ok := requireIDParam(w, r, "contentID")
	if !ok {
		return model.PageContent{}, model.Page{}, false
	}

	content, err := h.queries.GetPageContentByID(ctx, contentID)
	if err != nil {
		notFoundOr(w, err, "content", sql.ErrNoRows)
		return model.PageContent{}, model.Page{}, false
	}
	page, err := h.queries.GetPageByID(ctx, content.PageID)
	if err != nil {
		WriteInternalError(w, "Failed to load page")
		return model.PageContent{}, model.Page{}, false
	}

	allowed, err := h.engine.CanEditPage(ctx, userID, page.ID)
	if !checkAccess(w, allowed, err) {
		return model.PageContent{}, model.Page{}, false
	}
	return content, page, true
}

// UpdatePageContent handles PUT /api/contents/{contentID}.
func (h *Handler) UpdatePageContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	content, page, ok := h.requirePageContent(w, r)
	if !ok {
		return
	}

	var req PageContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validateContentRequest(req); errs != nil {
		WriteValidationError(w, errs)
		return
	}

	if err := h.queries.UpdatePageContent(ctx, store.UpdatePageContentParams{
		ID:              content.ID,
		SectionPosition: strings.TrimSpace(req.SectionPosition),
		ContentType:     req.ContentType,
		ContentRef:      strings.TrimSpace(req.ContentRef),
		DisplayOrder:    req.DisplayOrder,
		DurationSeconds: req.DurationSeconds,
		UpdatedAt:       time.Now(),
	}); err != nil {
		WriteInternalError(w, "Failed to update content")
		return
	}

	h.displays.InvalidateFeed(ctx, page.DepartmentID)

	updated, err := h.queries.GetPageContentByID(ctx, content.ID)
	if err != nil {
		WriteInternalError(w, "Failed to update content")
		return
	}
	WriteSuccess(w, updated, nil)
}

// DeletePageContent handles DELETE /api/contents/{contentID}.
func (h *Handler) DeletePageContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	content, page, ok := h.requirePageContent(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeletePageContent(ctx, content.ID); err != nil {
		WriteInternalError(w, "Failed to delete content")
		return
	}

	h.displays.InvalidateFeed(ctx, page.DepartmentID)
	WriteNoContent(w)
}
