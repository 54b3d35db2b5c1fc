package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/handlers/render"
	"github.com/clinicdesk/clinicdesk/internal/handlers/userctx"
	"github.com/clinicdesk/clinicdesk/internal/models"
)

func handleUserMe() http.Handler {
	type response struct {
		ID       uuid.UUID   `json:"id"`
		Email    string      `json:"email"`
		FullName string      `json:"full_name"`
		Role     models.Role `json:"role"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())
		render.JSON(w, response{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
		})
	})
}

func handleListUsers(us userService) http.Handler {
	type userResponse struct {
		ID        uuid.UUID   `json:"id"`
		CreatedAt time.Time   `json:"created_at"`
		Email     string      `json:"email"`
		FullName  string      `json:"full_name"`
		Role      models.Role `json:"role"`
	}
	type response struct {
		Users []userResponse `json:"users"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		users, err := us.ListUsers(r.Context())
		if err != nil {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		resp := response{Users: make([]userResponse, 0, len(users))}
		for _, u := range users {
			resp.Users = append(resp.Users, userResponse{
				ID:        u.ID,
				CreatedAt: u.CreatedAt,
				Email:     u.Email,
				FullName:  u.FullName,
				Role:      u.Role,
			})
		}

		render.JSON(w, resp)
	})
}
