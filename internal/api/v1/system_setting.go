package v1

import (
	"encoding/json"
	"net/http"

	"github.com/Xunop/e-shelf/internal/http/response"
	"github.com/pkg/errors"
)

type themeBody struct {
	Theme string `json:"theme"`
}

func (h *Handler) getTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.library.GetTheme(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, r, themeBody{Theme: theme})
}

func (h *Handler) setTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, r, errors.Wrap(err, "invalid theme"))
		return
	}
	if err := h.library.SetTheme(r.Context(), body.Theme); err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, r, body)
}

func (h *Handler) getGeneralSettings(w http.ResponseWriter, r *http.Request) {
	general, err := h.library.GetGeneralSetting(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, r, general)
}
