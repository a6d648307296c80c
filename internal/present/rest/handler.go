package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/authz"
	"github.com/amberflux/lorepo/internal/domain"
	"github.com/amberflux/lorepo/internal/present/rest/presenter"
	"github.com/amberflux/lorepo/internal/usecase"
)

// EventStreamer bridges the realtime socket to the lifecycle event feed.
// SignalService implements it over redis pub/sub.
type EventStreamer interface {
	Realtime(ctx context.Context, input <-chan []string, output chan<- lorepo.Event)
}

type Handler struct {
	submission *usecase.SubmissionUsecase
	revision   *usecase.RevisionUsecase
	hierarchy  *usecase.HierarchyUsecase
	changelog  *usecase.ChangelogUsecase
	search     usecase.SearchPlanner
	signal     EventStreamer
}

func NewHandler(
	submission *usecase.SubmissionUsecase,
	revision *usecase.RevisionUsecase,
	hierarchy *usecase.HierarchyUsecase,
	changelog *usecase.ChangelogUsecase,
	signal EventStreamer,
) *Handler {
	return &Handler{
		submission: submission,
		revision:   revision,
		hierarchy:  hierarchy,
		changelog:  changelog,
		signal:     signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/objects/:id/submit", h.handleSubmit)
	e.POST("/api/v1/objects/:id/cancel", h.handleCancelSubmission)
	e.PUT("/api/v1/objects/:id/submission", h.handleUpdateSubmission)
	e.PUT("/api/v1/objects/:id/status", h.handleUpdateStatus)
	e.PUT("/api/v1/objects/:id/last-modified", h.handleUpdateLastModified)
	e.GET("/api/v1/objects/:id/parents", h.handleParents)
	e.GET("/api/v1/objects/:id/top-level", h.handleTopLevel)
	e.GET("/api/v1/objects/:id/hierarchy", h.handleHierarchy)
	e.POST("/api/v1/users/:username/objects/:id/revisions", h.handleCreateRevision)
	e.GET("/api/v1/users/:username/objects/:id/revisions/:revision", h.handleGetRevision)
	e.POST("/api/v1/objects/:id/changelog", h.handleAppendChangelog)
	e.GET("/api/v1/objects/:id/changelog", h.handleListChangelog)
	e.GET("/api/v1/search/plan", h.handleSearchPlan)
	e.GET("/realtime", h.handleRealtime)
}

func requesterFromContext(c echo.Context) *lorepo.UserToken {
	requester, _ := c.Request().Context().Value(domain.RequesterCtxKey).(*lorepo.UserToken)
	return requester
}

type submitRequest struct {
	Collection string `json:"collection"`
}

func (h *Handler) handleSubmit(c echo.Context) error {
	ctx := c.Request().Context()

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Collection == "" {
		return presenter.BadRequestMessage(c, "collection is required")
	}

	object, err := h.submission.SubmitForReview(ctx, usecase.SubmitInput{
		Requester:        requesterFromContext(c),
		LearningObjectID: c.Param("id"),
		Collection:       req.Collection,
	})
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, object)
}

func (h *Handler) handleCancelSubmission(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.submission.CancelSubmission(ctx, requesterFromContext(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, map[string]string{"status": "canceled"})
}

func (h *Handler) handleUpdateSubmission(c echo.Context) error {
	ctx := c.Request().Context()

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Collection == "" {
		return presenter.BadRequestMessage(c, "collection is required")
	}

	err := h.submission.UpdateSubmission(ctx, requesterFromContext(c), c.Param("id"), req.Collection)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, map[string]string{"status": "updated"})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	object, err := h.submission.UpdateStatus(ctx, usecase.StatusUpdateInput{
		Requester:        requesterFromContext(c),
		LearningObjectID: c.Param("id"),
		Status:           domain.Status(req.Status),
	})
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, object)
}

type lastModifiedRequest struct {
	Date string `json:"date"`
}

// handleUpdateLastModified stamps an object and its ancestors with a new
// last-modified date. Called by the editing surface after content changes.
func (h *Handler) handleUpdateLastModified(c echo.Context) error {
	ctx := c.Request().Context()

	if requesterFromContext(c) == nil {
		return presenter.InvalidAccess(c, domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "requester required"})
	}

	var req lastModifiedRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	err := h.hierarchy.UpdateLastModified(ctx, c.Param("id"), req.Date)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, map[string]string{"status": "updated"})
}

func (h *Handler) handleParents(c echo.Context) error {
	ctx := c.Request().Context()

	parents, err := h.hierarchy.FetchParents(ctx, c.Param("id"), requesterFromContext(c))
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, parents)
}

func (h *Handler) handleTopLevel(c echo.Context) error {
	ctx := c.Request().Context()

	topLevel, err := h.hierarchy.IsTopLevel(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, map[string]bool{"topLevel": topLevel})
}

func (h *Handler) handleHierarchy(c echo.Context) error {
	ctx := c.Request().Context()

	tree, err := h.hierarchy.FetchHierarchy(ctx, c.Param("id"), requesterFromContext(c))
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, tree)
}

func (h *Handler) handleCreateRevision(c echo.Context) error {
	ctx := c.Request().Context()

	revision, err := h.revision.CreateRevision(ctx, c.Param("username"), c.Param("id"), requesterFromContext(c))
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, map[string]int{"revision": revision})
}

func (h *Handler) handleGetRevision(c echo.Context) error {
	ctx := c.Request().Context()

	revision, err := strconv.Atoi(c.Param("revision"))
	if err != nil {
		return presenter.BadRequestMessage(c, "revision must be an integer")
	}

	object, err := h.revision.GetRevision(ctx, usecase.GetRevisionInput{
		Requester:        requesterFromContext(c),
		Username:         c.Param("username"),
		LearningObjectID: c.Param("id"),
		Revision:         revision,
		Summary:          c.QueryParam("summary") == "true",
	})
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, object)
}

type changelogRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleAppendChangelog(c echo.Context) error {
	ctx := c.Request().Context()

	var req changelogRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Text == "" {
		return presenter.BadRequestMessage(c, "text is required")
	}

	entry, err := h.changelog.Append(ctx, requesterFromContext(c), c.Param("id"), req.Text)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, entry)
}

func (h *Handler) handleListChangelog(c echo.Context) error {
	ctx := c.Request().Context()

	entries, err := h.changelog.List(ctx, requesterFromContext(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, entries)
}

func queryList(c echo.Context, name string) []string {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

type searchPlanResponse struct {
	AccessMap  domain.CollectionAccessMap `json:"accessMap"`
	Conditions []domain.QueryCondition    `json:"conditions"`
}

func (h *Handler) handleSearchPlan(c echo.Context) error {
	requester := requesterFromContext(c)

	requested := queryList(c, "collections")
	var statuses []domain.Status
	for _, s := range queryList(c, "statuses") {
		statuses = append(statuses, domain.Status(s))
	}

	if c.QueryParam("drafts") == "true" {
		err := h.search.ValidateDraftSearch(true, requester, c.QueryParam("username"), statuses)
		if err != nil {
			return presenter.Error(c, err)
		}
	}

	var privileged []string
	if requester != nil {
		privileged = authz.AccessGroupCollections(requester)
	}

	accessMap, err := h.search.CollectionAccessMap(requested, privileged, statuses)
	if err != nil {
		return presenter.Error(c, err)
	}

	conditions := h.search.CollectionQueryConditions(len(requested) > 0, statuses, accessMap)

	return presenter.OK(c, searchPlanResponse{
		AccessMap:  accessMap,
		Conditions: conditions,
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type        string   `json:"type"`
	Collections []string `json:"collections"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	input := make(chan []string)
	output := make(chan lorepo.Event)

	go h.signal.Realtime(ctx, input, output)

	// Buffered so the reader can signal exit even after the writer loop has
	// already returned on a failed write.
	quit := make(chan struct{}, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "listen":
				select {
				case input <- req.Collections:
				case <-done:
					return
				}
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.Collections),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
