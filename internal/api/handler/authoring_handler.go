package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"tle_zone_studio/internal/api/middleware"
	"tle_zone_studio/internal/app/authoring"
	"tle_zone_studio/internal/app/draft"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/common/security"
	"tle_zone_studio/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

type AuthoringHandler struct {
	sessions *authoring.SessionManager
}

func NewAuthoringHandler(sessions *authoring.SessionManager) *AuthoringHandler {
	return &AuthoringHandler{sessions: sessions}
}

func (h *AuthoringHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.mount) // POST /api/v1/authoring/sessions

	r.Route("/{"+middleware.SessionIDParam+"}", func(s chi.Router) {
		s.Use(middleware.DraftAuthenticator)
		s.Get("/", h.getView)
		s.Delete("/", h.unmount)
		s.Post("/open", h.open)
		s.Post("/close", h.close)
		s.Post("/keys", h.key)
		s.Patch("/draft", h.updateDraft)
		s.Put("/preview", h.setPreview)
		s.Put("/language", h.selectLanguage)
		s.Put("/code", h.editCode)
		s.Post("/code/undo", h.undoCode)
		s.Post("/testcases/{group}", h.addTestcase)
		s.Put("/testcases/{group}/{index}", h.updateTestcase)
		s.Delete("/testcases/{group}/{index}", h.removeTestcase)
		s.Post("/submit", h.submit)
		s.Get("/events", h.events)
	})
}

type mountRequest struct {
	Theme string `json:"theme"`
}

type mountResponse struct {
	Token   string                `json:"token"`
	Session authoring.SessionView `json:"session"`
}

// maxBodyBytes bounds a single authoring request; drafts carry code and testcase text.
const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.Errorf("request body exceeds %d bytes: %w", tooLarge.Limit, common.ErrPayloadTooLarge)
		}
		return common.Errorf("Invalid request: %v: %w", err, common.ErrBadRequest)
	}
	return nil
}

func (h *AuthoringHandler) mount(w http.ResponseWriter, r *http.Request) {
	var req mountRequest
	if err := decodeBody(w, r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	session, err := h.sessions.Mount(req.Theme)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	token, err := security.IssueDraftToken(session.ID)
	if err != nil {
		_ = h.sessions.Unmount(session.ID)
		common.RespondWithError(w, http.StatusInternalServerError, "Failed to issue draft token")
		return
	}
	view, err := session.View()
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, mountResponse{Token: token, Session: view})
}

func (h *AuthoringHandler) session(r *http.Request) (*authoring.Session, error) {
	return h.sessions.Get(chi.URLParam(r, middleware.SessionIDParam))
}

// do runs fn on the addressed session and answers with the resulting view.
func (h *AuthoringHandler) do(w http.ResponseWriter, r *http.Request, status int, fn func(m *authoring.Modal) error) {
	session, err := h.session(r)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	view, err := session.Do(fn)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, status, view)
}

func (h *AuthoringHandler) getView(w http.ResponseWriter, r *http.Request) {
	h.do(w, r, http.StatusOK, func(*authoring.Modal) error { return nil })
}

func (h *AuthoringHandler) unmount(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Unmount(chi.URLParam(r, middleware.SessionIDParam)); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthoringHandler) open(w http.ResponseWriter, r *http.Request) {
	h.do(w, r, http.StatusOK, func(m *authoring.Modal) error { return m.Open() })
}

func (h *AuthoringHandler) close(w http.ResponseWriter, r *http.Request) {
	h.do(w, r, http.StatusOK, func(m *authoring.Modal) error { return m.Close() })
}

type keyRequest struct {
	Key string `json:"key"`
}

func (h *AuthoringHandler) key(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decodeBody(w, r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	h.do(w, r, http.StatusOK, func(m *authoring.Modal) error {
		m.HandleKey(req.Key)
		return nil
	})
}

func (h *AuthoringHandler) updateDraft(w http.ResponseWriter, r *http.Request) {
	var req authoring.FieldUpdate
	if err := decodeBody(w, r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	h.do(w, r, http.StatusOK, func(m *authoring.Modal) error { return m.UpdateFields(req) })
}

type previewRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *AuthoringHandler) setPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeBody(w, r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	h.do(w, r, http.StatusOK, func(m *authoring.Modal) error { return m.SetPreview(req.Enabled) })
}

type languageRequest struct {
	Language string `json:"language"`
}

func (h *AuthoringHandler) selectLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeBody(w, r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	h.do(w, r, http.StatusOK, func(m *authoring.Modal) error { return m.SelectLanguage(req.Language) })
}

type codeRequest struct {
	Value string `json:"value"`
}

func (h *AuthoringHandler) editCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeBody(w, r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	h.do(w, r, http.StatusOK, func(m *authoring.Modal) error { return m.EditCode(req.Value) })
}

func (h *AuthoringHandler) undoCode(w http.ResponseWriter, r *http.Request) {
	h.do(w, r, http.StatusOK, func(m *authoring.Modal) error {
		_, err := m.UndoCode()
		return err
	})
}

func testcaseParams(r *http.Request, withIndex bool) (draft.Group, int, error) {
	group, err := draft.ParseGroup(chi.URLParam(r, "group"))
	if err != nil {
		return "", 0, err
	}
	if !withIndex {
		return group, 0, nil
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return "", 0, common.Errorf("invalid testcase index %q: %w", chi.URLParam(r, "index"), common.ErrBadRequest)
	}
	return group, index, nil
}

func (h *AuthoringHandler) addTestcase(w http.ResponseWriter, r *http.Request) {
	group, _, err := testcaseParams(r, false)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	h.do(w, r, http.StatusCreated, func(m *authoring.Modal) error {
		_, err := m.AddTestcase(group)
		return err
	})
}

type testcaseRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *AuthoringHandler) updateTestcase(w http.ResponseWriter, r *http.Request) {
	group, index, err := testcaseParams(r, true)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	var req testcaseRequest
	if err := decodeBody(w, r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	field, err := draft.ParseField(req.Field)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	h.do(w, r, http.StatusOK, func(m *authoring.Modal) error {
		return m.UpdateTestcase(group, index, field, req.Value)
	})
}

func (h *AuthoringHandler) removeTestcase(w http.ResponseWriter, r *http.Request) {
	group, index, err := testcaseParams(r, true)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	h.do(w, r, http.StatusOK, func(m *authoring.Modal) error { return m.RemoveTestcase(group, index) })
}

func (h *AuthoringHandler) submit(w http.ResponseWriter, r *http.Request) {
	h.do(w, r, http.StatusAccepted, func(m *authoring.Modal) error { return m.Submit(r.Context()) })
}

// events streams every view change as a server-sent event until the client
// goes away or the session is unmounted.
func (h *AuthoringHandler) events(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(r)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	views, cancel, err := session.Watch()
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	defer cancel()

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{}) // the stream outlives the server write timeout

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case <-r.Context().Done():
			return
		case view, ok := <-views:
			if !ok {
				fmt.Fprint(w, "event: unmounted\ndata: {}\n\n")
				_ = rc.Flush()
				return
			}
			data, err := json.Marshal(view)
			if err != nil {
				logger.Log.Errorw("failed to marshal session view", "session_id", session.ID, "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: view\ndata: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
