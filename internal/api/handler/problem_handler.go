package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"tle_zone_studio/internal/app/description"
	"tle_zone_studio/internal/app/service"
	"tle_zone_studio/internal/app/store"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/domain/model"
	"tle_zone_studio/internal/domain/repository"
	"tle_zone_studio/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// ProblemReader is the read side of the problem service.
type ProblemReader interface {
	Meta() model.ProblemMeta
	GetProblem(ctx context.Context, serial int64) (*model.Problem, error)
	ListProblems(ctx context.Context, filter repository.ProblemFilter) (*service.ProblemPage, error)
}

// DescriptionRenderer turns problem markdown into safe HTML.
type DescriptionRenderer = description.Renderer

type ProblemHandler struct {
	problems ProblemReader
	renderer description.Renderer
}

func NewProblemHandler(problems ProblemReader, renderer description.Renderer) *ProblemHandler {
	return &ProblemHandler{problems: problems, renderer: renderer}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)                       // GET /api/v1/problems
	r.Get("/{serial}", h.getProblem)                 // GET /api/v1/problems/12
	r.Get("/{serial}/description", h.getDescription) // GET /api/v1/problems/12/description
	r.Get("/{serial}/events", h.events)              // GET /api/v1/problems/12/events
}

func (h *ProblemHandler) ServeMeta(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.problems.Meta())
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	pageSize = service.ClampPageSize(pageSize)

	result, err := h.problems.ListProblems(r.Context(), repository.ProblemFilter{
		Levels:     splitList(q.Get("level")),
		Categories: splitList(q.Get("category")),
		Search:     strings.TrimSpace(q.Get("q")),
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	})
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func serialParam(r *http.Request) (int64, error) {
	serial, err := strconv.ParseInt(chi.URLParam(r, "serial"), 10, 64)
	if err != nil || serial <= 0 {
		return 0, common.Errorf("invalid problem serial %q: %w", chi.URLParam(r, "serial"), common.ErrBadRequest)
	}
	return serial, nil
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	serial, err := serialParam(r)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	problem, err := h.problems.GetProblem(r.Context(), serial)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

// describe loads the problem through a store and feeds every current-problem
// value to a description view. emit, when set, sees each model the view
// produces, starting with the loading panel.
func (h *ProblemHandler) describe(ctx context.Context, serial int64, emit func(description.Model) error) (*description.View, error) {
	st := store.New(nil, h.problems)
	view := description.NewView(h.renderer)
	problems, cancel := st.SubscribeProblem()
	defer cancel()

	loadErr := make(chan error, 1)
	go func() { loadErr <- st.LoadProblem(ctx, serial) }()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err := <-loadErr:
			if err != nil {
				return nil, err
			}
			loadErr = nil
		case p := <-problems:
			if err := view.Observe(p); err != nil {
				return nil, err
			}
			if emit != nil {
				if err := emit(view.Model()); err != nil {
					return nil, err
				}
			}
			if p != nil {
				return view, nil
			}
		}
	}
}

func (h *ProblemHandler) describeRequest(r *http.Request) (*description.View, error) {
	serial, err := serialParam(r)
	if err != nil {
		return nil, err
	}
	return h.describe(r.Context(), serial, nil)
}

func (h *ProblemHandler) getDescription(w http.ResponseWriter, r *http.Request) {
	view, err := h.describeRequest(r)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, view.Model())
}

// ServePage renders the standalone description page.
func (h *ProblemHandler) ServePage(w http.ResponseWriter, r *http.Request) {
	view, err := h.describeRequest(r)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.WriteHTML(w); err != nil {
		logger.Log.Errorw("failed to write problem page", "error", err)
	}
}

// events streams the description view while the problem loads: the loading
// panel first, then the rendered problem, then the stream ends.
func (h *ProblemHandler) events(w http.ResponseWriter, r *http.Request) {
	serial, err := serialParam(r)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	_, err = h.describe(r.Context(), serial, func(m description.Model) error {
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: view\ndata: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err != nil && r.Context().Err() == nil {
		logger.Log.Infow("problem description stream failed", "serial", serial, "error", err)
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
		_ = rc.Flush()
	}
}
