package authcore

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// maxAvatarUploadBytes caps the multipart memory buffer for avatar updates.
const maxAvatarUploadBytes = 10 << 20

// UserController serves the user-record admin surface: fetch, update, list
// and delete.
type UserController struct {
	Store  CredentialStore
	Images ImageStore
}

// HandleGetUser handles GET /user/{userid}.
func (u *UserController) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := u.Store.GetUserByID(r.Context(), mux.Vars(r)["userid"])
	if err != nil {
		writeError(w, ErrNotFound("User not found."))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}

// HandleUpdateUser handles PUT /user/{userid}. The request is a multipart
// form so an avatar image can ride along with the field edits. Absent fields
// keep their stored values.
func (u *UserController) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, err := u.Store.GetUserByID(r.Context(), mux.Vars(r)["userid"])
	if err != nil {
		writeError(w, ErrNotFound("User not found."))
		return
	}

	if err := r.ParseMultipartForm(maxAvatarUploadBytes); err != nil {
		writeError(w, ErrBadRequest("Invalid request body."))
		return
	}

	if name := r.FormValue("name"); name != "" {
		user.Name = name
	}
	if email := NormalizeEmail(r.FormValue("email")); email != "" && email != user.Email {
		if _, err := u.Store.GetUserByEmail(r.Context(), email); err == nil {
			writeError(w, ErrConflict("Email already in use."))
			return
		} else if err != ErrUserNotFound {
			slog.Error("update user: email lookup failed", "err", err)
			writeError(w, err)
			return
		}
		user.Email = email
	}
	if bio := r.FormValue("bio"); bio != "" {
		user.Bio = bio
	}
	if password := r.FormValue("password"); password != "" {
		if len(password) < 8 {
			writeError(w, ErrBadRequest("Password must be at least 8 characters."))
			return
		}
		passwordHash, err := HashPassword(password)
		if err != nil {
			slog.Error("update user: hash failed", "err", err)
			writeError(w, err)
			return
		}
		user.PasswordHash = passwordHash
	}

	if file, header, err := r.FormFile("avatar"); err == nil {
		defer file.Close()
		if u.Images == nil {
			writeError(w, ErrBadRequest("Avatar uploads are not enabled."))
			return
		}
		asset, err := u.Images.Upload(r.Context(), file, header.Filename)
		if err != nil {
			slog.Error("update user: avatar upload failed", "err", err)
			writeError(w, ErrInternal("Failed to upload avatar."))
			return
		}
		if user.AvatarAssetID != "" {
			// Best effort; an orphaned asset is not worth failing the update.
			if err := u.Images.Delete(r.Context(), user.AvatarAssetID); err != nil {
				slog.Warn("update user: failed to delete old avatar", "assetId", user.AvatarAssetID, "err", err)
			}
		}
		user.AvatarURL = asset.URL
		user.AvatarAssetID = asset.ID
	}

	if err := u.Store.SaveUser(r.Context(), user); err != nil {
		slog.Error("update user: save failed", "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
		"message": "User updated successfully.",
	})
}

// HandleListUsers handles GET /users.
func (u *UserController) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := u.Store.ListUsers(r.Context())
	if err != nil {
		slog.Error("list users failed", "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
	})
}

// HandleDeleteUser handles DELETE /user/{id}. Admin accounts cannot be
// deleted through this endpoint.
func (u *UserController) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user, err := u.Store.GetUserByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, ErrNotFound("User not found."))
		return
	}
	if user.Role == RoleAdmin {
		writeError(w, ErrForbidden("Admin accounts cannot be deleted."))
		return
	}

	if user.AvatarAssetID != "" && u.Images != nil {
		if err := u.Images.Delete(r.Context(), user.AvatarAssetID); err != nil {
			slog.Warn("delete user: failed to delete avatar", "assetId", user.AvatarAssetID, "err", err)
		}
	}
	if err := u.Store.DeleteUser(r.Context(), user.ID); err != nil {
		slog.Error("delete user failed", "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User deleted successfully.",
	})
}
