package api

import (
	"net/http"

	"github.com/skillswap/swapd/internal/catalog"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/internal/validate"
)

type createSkillRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (h *Handler) ListSkills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.Catalog.SearchSkills(r.Context(), q.Get("name"), q.Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "skills retrieved", out)
}

func (h *Handler) CreateSkill(w http.ResponseWriter, r *http.Request) {
	var req createSkillRequest
	if err := h.decodeBody(r, validate.Skill, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sk, err := h.Catalog.CreateSkill(r.Context(), req.Name, req.Category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "skill created", sk)
}

func (h *Handler) ListMySkills(w http.ResponseWriter, r *http.Request) {
	dir := models.Direction(r.URL.Query().Get("direction"))
	out, err := h.Catalog.ListUserSkills(r.Context(), UserFromContext(r.Context()).ID, dir)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "user skills retrieved", out)
}

func (h *Handler) AddMySkill(w http.ResponseWriter, r *http.Request) {
	var in catalog.AddUserSkillInput
	if err := h.decodeBody(r, validate.UserSkill, &in); err != nil {
		writeError(w, r, err)
		return
	}

	us, err := h.Catalog.AddUserSkill(r.Context(), UserFromContext(r.Context()).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "user skill added", us)
}

func (h *Handler) RemoveMySkill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Catalog.RemoveUserSkill(r.Context(), UserFromContext(r.Context()).ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "user skill removed", nil)
}
