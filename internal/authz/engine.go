// Package authz implements the authorization engine: scoped permission
// checks over the three-tier System > Company > Department role hierarchy,
// with cached decisions and transactional role mutations.
package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/opensignage/osign-go/internal/cache"
	"github.com/opensignage/osign-go/internal/model"
	"github.com/opensignage/osign-go/internal/store"
)

// ErrDepartmentNotFound is returned by role assignment when the target
// department does not exist. Permission checks never return it; for them
// a missing scope is simply "no access".
var ErrDepartmentNotFound = errors.New("department not found")

// ErrInvalidRole is returned when a mutation names an unknown role.
var ErrInvalidRole = errors.New("invalid role")

// Cache key operations for scoped decisions.
const (
	opCompanyAccess     = "company_access"
	opCompanyAdmin      = "company_admin"
	opDepartmentAccess  = "department_access"
	opDepartmentManager = "department_manager"
	opDepartmentEdit    = "department_edit"
	opHasAnyRole        = "has_any_role"
	opHasCompanyAdmin   = "has_company_admin_role"
)

// Engine answers "can user U do X on scope S" and performs role mutations.
// Checks fall through SystemAdmin > CompanyAdmin > scope role > none; absence
// of a user, company or department is "no access", never an error.
type Engine struct {
	db      *sql.DB
	queries *store.Queries
	roles   *cache.RoleCache
}

// New creates an authorization engine over the given database and role cache.
func New(db *sql.DB, roles *cache.RoleCache) *Engine {
	return &Engine{
		db:      db,
		queries: store.New(db),
		roles:   roles,
	}
}

// cachedBool looks up a cached decision and computes + caches it on miss.
// Only persistence failures surface; those are never cached.
func (e *Engine) cachedBool(userID int64, key string, ttl time.Duration, compute func() (bool, error)) (bool, error) {
	if v, ok := e.roles.GetBool(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return false, err
	}
	e.roles.SetBool(userID, key, v, ttl)
	return v, nil
}

// IsSystemAdmin reports whether the user carries the global superuser flag.
// A missing or inactive user is not a system admin.
func (e *Engine) IsSystemAdmin(ctx context.Context, userID int64) (bool, error) {
	return e.cachedBool(userID, cache.SystemAdminKey(userID), cache.SystemAdminTTL, func() (bool, error) {
		user, err := e.queries.GetUserByID(ctx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("loading user %d: %w", userID, err)
		}
		return user.Active && user.IsSystemAdmin, nil
	})
}

// CanAccessCompany reports whether the user may see the company at all:
// system admin, or any active company role.
func (e *Engine) CanAccessCompany(ctx context.Context, userID, companyID int64) (bool, error) {
	if admin, err := e.IsSystemAdmin(ctx, userID); err != nil || admin {
		return admin, err
	}
	return e.cachedBool(userID, cache.ScopedKey(opCompanyAccess, userID, companyID), cache.ScopedRoleTTL, func() (bool, error) {
		_, err := e.queries.GetActiveCompanyRole(ctx, userID, companyID)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("loading company role: %w", err)
		}
		return true, nil
	})
}

// IsCompanyAdmin reports whether the user administers the company.
func (e *Engine) IsCompanyAdmin(ctx context.Context, userID, companyID int64) (bool, error) {
	if admin, err := e.IsSystemAdmin(ctx, userID); err != nil || admin {
		return admin, err
	}
	return e.cachedBool(userID, cache.ScopedKey(opCompanyAdmin, userID, companyID), cache.ScopedRoleTTL, func() (bool, error) {
		role, err := e.queries.GetActiveCompanyRole(ctx, userID, companyID)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("loading company role: %w", err)
		}
		return role.Role == model.CompanyRoleAdmin, nil
	})
}

// GetUserCompanies returns the companies visible to the user: every active
// company for a system admin, otherwise the companies where the user holds
// any active role, fetched in one batched query.
func (e *Engine) GetUserCompanies(ctx context.Context, userID int64) ([]model.Company, error) {
	admin, err := e.IsSystemAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if admin {
		return e.queries.ListActiveCompanies(ctx)
	}

	roles, err := e.queries.ListActiveCompanyRolesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing company roles: %w", err)
	}
	if len(roles) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(roles))
	for i, r := range roles {
		ids[i] = r.CompanyID
	}
	return e.queries.ListCompaniesByIDs(ctx, ids)
}

// CanAccessDepartment reports whether the user may see the department:
// system admin, admin of the owning company, or any active department role.
func (e *Engine) CanAccessDepartment(ctx context.Context, userID, departmentID int64) (bool, error) {
	if admin, err := e.IsSystemAdmin(ctx, userID); err != nil || admin {
		return admin, err
	}
	return e.cachedBool(userID, cache.ScopedKey(opDepartmentAccess, userID, departmentID), cache.ScopedRoleTTL, func() (bool, error) {
		dept, err := e.queries.GetDepartmentByID(ctx, departmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("loading department %d: %w", departmentID, err)
		}

		// Company admins implicitly reach every department of their company.
		companyRole, err := e.queries.GetActiveCompanyRole(ctx, userID, dept.CompanyID)
		if err == nil && companyRole.Role == model.CompanyRoleAdmin {
			return true, nil
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("loading company role: %w", err)
		}

		_, err = e.queries.GetActiveDepartmentRole(ctx, userID, departmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("loading department role: %w", err)
		}
		return true, nil
	})
}

// IsDepartmentManager reports whether the user manages the department.
// System and company admins are strictly more powerful than a manager.
func (e *Engine) IsDepartmentManager(ctx context.Context, userID, departmentID int64) (bool, error) {
	if admin, err := e.IsSystemAdmin(ctx, userID); err != nil || admin {
		return admin, err
	}
	return e.cachedBool(userID, cache.ScopedKey(opDepartmentManager, userID, departmentID), cache.ScopedRoleTTL, func() (bool, error) {
		dept, err := e.queries.GetDepartmentByID(ctx, departmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("loading department %d: %w", departmentID, err)
		}

		companyRole, err := e.queries.GetActiveCompanyRole(ctx, userID, dept.CompanyID)
		if err == nil && companyRole.Role == model.CompanyRoleAdmin {
			return true, nil
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("loading company role: %w", err)
		}

		role, err := e.queries.GetActiveDepartmentRole(ctx, userID, departmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("loading department role: %w", err)
		}
		return role.Role == model.DepartmentRoleManager, nil
	})
}

// CanEditInDepartment reports whether the user may edit content in the
// department. Manager implies editor; privilege within a department is
// totally ordered: manager > editor > viewer > none.
func (e *Engine) CanEditInDepartment(ctx context.Context, userID, departmentID int64) (bool, error) {
	if manager, err := e.IsDepartmentManager(ctx, userID, departmentID); err != nil || manager {
		return manager, err
	}
	return e.cachedBool(userID, cache.ScopedKey(opDepartmentEdit, userID, departmentID), cache.ScopedRoleTTL, func() (bool, error) {
		role, err := e.queries.GetActiveDepartmentRole(ctx, userID, departmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("loading department role: %w", err)
		}
		return role.Role == model.DepartmentRoleEditor, nil
	})
}

// GetUserDepartments returns the departments of the company visible to the
// user: all of them for company (or system) admins, otherwise only those
// with an active department role, joined with the company name for display.
func (e *Engine) GetUserDepartments(ctx context.Context, userID, companyID int64) ([]model.DepartmentWithCompany, error) {
	admin, err := e.IsCompanyAdmin(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}
	if admin {
		company, err := e.queries.GetCompanyByID(ctx, companyID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("loading company %d: %w", companyID, err)
		}
		departments, err := e.queries.ListDepartmentsByCompany(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("listing departments: %w", err)
		}
		result := make([]model.DepartmentWithCompany, len(departments))
		for i, d := range departments {
			result[i] = model.DepartmentWithCompany{Department: d, CompanyName: company.Name}
		}
		return result, nil
	}
	return e.queries.ListUserDepartmentsByCompany(ctx, userID, companyID)
}

// CanAccessPage delegates to the department check for the page's owner.
func (e *Engine) CanAccessPage(ctx context.Context, userID, pageID int64) (bool, error) {
	page, err := e.queries.GetPageByID(ctx, pageID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading page %d: %w", pageID, err)
	}
	return e.CanAccessDepartment(ctx, userID, page.DepartmentID)
}

// CanEditPage reports whether the user may edit the page's content;
// editor-level privilege suffices.
func (e *Engine) CanEditPage(ctx context.Context, userID, pageID int64) (bool, error) {
	page, err := e.queries.GetPageByID(ctx, pageID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading page %d: %w", pageID, err)
	}
	return e.CanEditInDepartment(ctx, userID, page.DepartmentID)
}

// CanModifyPage reports whether the user may perform destructive page
// operations (delete, re-layout); requires manager-level privilege.
func (e *Engine) CanModifyPage(ctx context.Context, userID, pageID int64) (bool, error) {
	page, err := e.queries.GetPageByID(ctx, pageID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading page %d: %w", pageID, err)
	}
	return e.IsDepartmentManager(ctx, userID, page.DepartmentID)
}

// HasAnyRole reports whether the user holds any active company role or is a
// system admin. Gates whether management UI is shown at all.
func (e *Engine) HasAnyRole(ctx context.Context, userID int64) (bool, error) {
	if admin, err := e.IsSystemAdmin(ctx, userID); err != nil || admin {
		return admin, err
	}
	return e.cachedBool(userID, cache.UserKey(opHasAnyRole, userID), cache.ScopedRoleTTL, func() (bool, error) {
		roles, err := e.queries.ListActiveCompanyRolesByUser(ctx, userID)
		if err != nil {
			return false, fmt.Errorf("listing company roles: %w", err)
		}
		return len(roles) > 0, nil
	})
}

// HasAnyCompanyAdminRole reports whether the user administers any company.
func (e *Engine) HasAnyCompanyAdminRole(ctx context.Context, userID int64) (bool, error) {
	if admin, err := e.IsSystemAdmin(ctx, userID); err != nil || admin {
		return admin, err
	}
	return e.cachedBool(userID, cache.UserKey(opHasCompanyAdmin, userID), cache.ScopedRoleTTL, func() (bool, error) {
		n, err := e.queries.CountActiveCompanyAdminRoles(ctx, userID)
		if err != nil {
			return false, fmt.Errorf("counting admin roles: %w", err)
		}
		return n > 0, nil
	})
}

// AssignCompanyRole grants or updates a user's role in a company. The
// underlying upsert converges concurrent assignments on a single row; the
// last writer's role, assigner and timestamp win. Every cached decision for
// the user is invalidated afterwards.
func (e *Engine) AssignCompanyRole(ctx context.Context, userID, companyID int64, role, assignedBy string) error {
	if !model.ValidCompanyRole(role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	_, err := e.queries.UpsertCompanyRole(ctx, store.UpsertCompanyRoleParams{
		UserID:     userID,
		CompanyID:  companyID,
		Role:       role,
		AssignedBy: assignedBy,
		AssignedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("assigning company role: %w", err)
	}

	e.roles.InvalidateUser(userID)
	slog.Info("company role assigned",
		"category", model.EventCategoryRole,
		"user_id", userID, "company_id", companyID, "role", role, "assigned_by", assignedBy)
	return nil
}

// RemoveCompanyRole revokes the user's company role. Department roles the
// user holds in that company's departments are deleted first: a department
// role is meaningless without company membership. Both deletes run in one
// transaction.
func (e *Engine) RemoveCompanyRole(ctx context.Context, userID, companyID int64) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := e.queries.WithTx(tx)
	if err := qtx.DeleteDepartmentRolesByCompany(ctx, userID, companyID); err != nil {
		return fmt.Errorf("cascading department roles: %w", err)
	}
	if err := qtx.DeleteCompanyRole(ctx, userID, companyID); err != nil {
		return fmt.Errorf("removing company role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing role removal: %w", err)
	}

	e.roles.InvalidateUser(userID)
	slog.Info("company role removed",
		"category", model.EventCategoryRole,
		"user_id", userID, "company_id", companyID)
	return nil
}

// AssignDepartmentRole grants or updates a user's role in a department. If
// the user has no active role in the owning company yet, a company viewer
// role is auto-provisioned first so the membership invariant holds. Runs in
// one transaction.
func (e *Engine) AssignDepartmentRole(ctx context.Context, userID, departmentID int64, role, assignedBy string) error {
	if !model.ValidDepartmentRole(role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := e.queries.WithTx(tx)

	dept, err := qtx.GetDepartmentByID(ctx, departmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDepartmentNotFound
	}
	if err != nil {
		return fmt.Errorf("loading department %d: %w", departmentID, err)
	}

	now := time.Now()
	_, err = qtx.GetActiveCompanyRole(ctx, userID, dept.CompanyID)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := qtx.UpsertCompanyRole(ctx, store.UpsertCompanyRoleParams{
			UserID:     userID,
			CompanyID:  dept.CompanyID,
			Role:       model.CompanyRoleViewer,
			AssignedBy: assignedBy,
			AssignedAt: now,
		}); err != nil {
			return fmt.Errorf("auto-provisioning company role: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("loading company role: %w", err)
	}

	if _, err := qtx.UpsertDepartmentRole(ctx, store.UpsertDepartmentRoleParams{
		UserID:       userID,
		DepartmentID: departmentID,
		Role:         role,
		AssignedBy:   assignedBy,
		AssignedAt:   now,
	}); err != nil {
		return fmt.Errorf("assigning department role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing role assignment: %w", err)
	}

	e.roles.InvalidateUser(userID)
	slog.Info("department role assigned",
		"category", model.EventCategoryRole,
		"user_id", userID, "department_id", departmentID, "role", role, "assigned_by", assignedBy)
	return nil
}

// RemoveDepartmentRole revokes the user's role in one department. It does
// not cascade upward: the company role and sibling department roles stay.
func (e *Engine) RemoveDepartmentRole(ctx context.Context, userID, departmentID int64) error {
	if err := e.queries.DeleteDepartmentRole(ctx, userID, departmentID); err != nil {
		return fmt.Errorf("removing department role: %w", err)
	}

	e.roles.InvalidateUser(userID)
	slog.Info("department role removed",
		"category", model.EventCategoryRole,
		"user_id", userID, "department_id", departmentID)
	return nil
}
