package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/skillswap/swapd/internal/identity"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/internal/validate"
)

// SyncProfile creates the caller's profile on first call and updates it
// afterwards. Name and email fall back to the token claims.
func (h *Handler) SyncProfile(w http.ResponseWriter, r *http.Request) {
	var in identity.ProfileInput
	if err := h.decodeBody(r, validate.Profile, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if c := claimsFromContext(r.Context()); c != nil {
		if in.Name == "" {
			in.Name = c.Name
		}
		if in.Email == "" {
			in.Email = c.Email
		}
	}

	u, created, err := h.Gate.SyncProfile(r.Context(), UserIDFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if created {
		writeOK(w, http.StatusCreated, "profile created", u)
		return
	}
	writeOK(w, http.StatusOK, "profile updated", u)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	p, err := h.profile(r, u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "profile retrieved", p)
}

func (h *Handler) profile(r *http.Request, u *models.User) (*models.PublicProfile, error) {
	skills, err := h.Catalog.ListUserSkills(r.Context(), u.ID, "")
	if err != nil {
		return nil, err
	}
	agg, err := h.Ratings.Aggregate(r.Context(), u.ID)
	if err != nil {
		return nil, err
	}

	p := &models.PublicProfile{
		User:          *u,
		Offered:       []models.UserSkill{},
		Wanted:        []models.UserSkill{},
		AverageRating: agg.Average,
		TotalRatings:  agg.Total,
	}
	for _, us := range skills {
		if us.Direction == models.Offered {
			p.Offered = append(p.Offered, us)
		} else {
			p.Wanted = append(p.Wanted, us)
		}
	}
	return p, nil
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in identity.ProfileInput
	if err := h.decodeBody(r, validate.Profile, &in); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.Gate.UpdateProfile(r.Context(), UserIDFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "profile updated", u)
}

// SearchUsers browses public profiles, optionally filtered by skill name.
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := h.page(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.Catalog.Browse(r.Context(), r.URL.Query().Get("skill"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "users retrieved", out)
}

func (h *Handler) UserRatings(w http.ResponseWriter, r *http.Request) {
	agg, err := h.Ratings.Aggregate(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "ratings retrieved", agg)
}
