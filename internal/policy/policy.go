// Package policy decides what a caller may do to a resource. It is pure:
// callers load the resource and pass it in.
package policy

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"tradehub/internal/models"
)

// Action is an operation a caller attempts.
type Action string

const (
	ActionRead       Action = "read"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionModerate   Action = "moderate"
	ActionAssignRole Action = "assign-role"
)

// rolePermissions lists actions granted by role alone, regardless of ownership.
var rolePermissions = map[models.Role][]Action{
	models.RoleAdmin:     {ActionRead, ActionDelete, ActionModerate, ActionAssignRole},
	models.RoleModerator: {ActionRead, ActionDelete, ActionModerate},
	models.RoleMiddleman: {ActionRead},
	models.RoleVerified:  {ActionRead},
	models.RoleUser:      {ActionRead},
	models.RoleBanned:    {ActionRead},
}

// ownerPermissions lists actions granted by owning the resource.
var ownerPermissions = []Action{ActionRead, ActionUpdate, ActionDelete}

// HasPermission reports whether role alone grants action.
func HasPermission(role models.Role, action Action) bool {
	for _, a := range rolePermissions[role] {
		if a == action {
			return true
		}
	}
	return false
}

// Require checks an action that is not bound to a resource (moderate, assign-role).
func Require(caller models.CallerIdentity, action Action) error {
	if HasPermission(caller.Role, action) {
		return nil
	}
	return models.NewForbiddenError(models.ReasonInsufficientRole, insufficientRoleMessage(action))
}

// Authorize decides whether caller may perform action on resource.
// A nil resource yields RESOURCE_NOT_FOUND.
func Authorize(caller models.CallerIdentity, resource models.Owned, action Action) error {
	if action == ActionModerate || action == ActionAssignRole {
		return Require(caller, action)
	}
	if isNil(resource) {
		return &models.AppError{
			Code:    models.CodeNotFound,
			Message: "Resource not found",
			Reason:  models.ReasonNotFound,
		}
	}
	if action == ActionRead {
		return nil
	}

	isOwner := caller.Role != models.RoleBanned && SameID(caller.UserID, resource.OwnerID())
	if isOwner {
		for _, a := range ownerPermissions {
			if a == action {
				return nil
			}
		}
	}
	if HasPermission(caller.Role, action) {
		return nil
	}

	if action == ActionUpdate {
		return models.NewForbiddenError(models.ReasonNotOwner, "Only the owner can modify this resource")
	}
	return models.NewForbiddenError(models.ReasonNotOwner, "Only the owner or a moderator can delete this resource")
}

// AuthorizeBan applies the extra ban rules: nobody bans themselves and
// moderators cannot ban staff.
func AuthorizeBan(caller models.CallerIdentity, target *models.User) error {
	if err := Require(caller, ActionModerate); err != nil {
		return err
	}
	if target == nil {
		return models.NewNotFoundError("User", "")
	}
	if SameID(caller.UserID, target.ID) {
		return models.NewValidationError("You cannot ban yourself")
	}
	if caller.Role != models.RoleAdmin && target.Role.IsStaff() {
		return models.NewForbiddenError(models.ReasonInsufficientRole, "Only admins can ban staff members")
	}
	return nil
}

func insufficientRoleMessage(action Action) string {
	switch action {
	case ActionAssignRole:
		return "Admin role required"
	case ActionModerate:
		return "Moderator role required"
	default:
		return "Insufficient role"
	}
}

// NormalizeID converts any id representation the API sees (path params,
// token subjects, numeric JSON) into the store's uint key.
func NormalizeID(v any) (uint, bool) {
	switch id := v.(type) {
	case uint:
		return id, id > 0
	case uint64:
		if id == 0 || id > math.MaxUint32 {
			return 0, false
		}
		return uint(id), true
	case uint32:
		return uint(id), id > 0
	case int:
		if id <= 0 {
			return 0, false
		}
		return uint(id), true
	case int64:
		if id <= 0 || id > math.MaxUint32 {
			return 0, false
		}
		return uint(id), true
	case float64:
		if id <= 0 || id != math.Trunc(id) || id > math.MaxUint32 {
			return 0, false
		}
		return uint(id), true
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32)
		if err != nil || parsed == 0 {
			return 0, false
		}
		return uint(parsed), true
	case *uint:
		if id == nil {
			return 0, false
		}
		return NormalizeID(*id)
	default:
		return 0, false
	}
}

// SameID compares two ids after normalization. Invalid ids never match.
func SameID(a, b any) bool {
	left, ok := NormalizeID(a)
	if !ok {
		return false
	}
	right, ok := NormalizeID(b)
	return ok && left == right
}

func isNil(resource models.Owned) bool {
	if resource == nil {
		return true
	}
	v := reflect.ValueOf(resource)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
