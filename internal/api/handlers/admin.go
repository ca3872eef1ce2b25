package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"auctionhouse/internal/api/middleware"
	"auctionhouse/internal/domain"
	"auctionhouse/internal/services"
	"auctionhouse/pkg/logger"
)

// AdminHandler serves the session-gated management surface: auction CRUD
// and credential rotation.
type AdminHandler struct {
	engine      *services.Engine
	creds       *services.CredentialManager
	sessions    *sessions.CookieStore
	sessionName string
	log         logger.Logger
}

func NewAdminHandler(
	engine *services.Engine,
	creds *services.CredentialManager,
	sessionStore *sessions.CookieStore,
	sessionName string,
	log logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		engine:      engine,
		creds:       creds,
		sessions:    sessionStore,
		sessionName: sessionName,
		log:         log,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateAuctionRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	StartingBid  float64   `json:"starting_bid"`
	MinIncrement float64   `json:"min_increment"`
	MaxIncrement *float64  `json:"max_increment,omitempty"`
}

type UpdateAuctionRequest struct {
	Title             *string    `json:"title,omitempty"`
	Description       *string    `json:"description,omitempty"`
	StartsAt          *time.Time `json:"starts_at,omitempty"`
	EndsAt            *time.Time `json:"ends_at,omitempty"`
	StartingBid       *float64   `json:"starting_bid,omitempty"`
	MinIncrement      *float64   `json:"min_increment,omitempty"`
	MaxIncrement      *float64   `json:"max_increment,omitempty"`
	ClearMaxIncrement bool       `json:"clear_max_increment,omitempty"`
}

type RotateCredentialsRequest struct {
	CurrentPassword string `json:"current_password"`
	Username        string `json:"username"`
	Password        string `json:"password"`
}

type AdminAuctionResponse struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	StartingBid  float64   `json:"starting_bid"`
	MinIncrement float64   `json:"min_increment"`
	MaxIncrement *float64  `json:"max_increment,omitempty"`
	CurrentBid   float64   `json:"current_bid"`
	BidCount     int       `json:"bid_count"`
	State        string    `json:"state"`
}

func (h *AdminHandler) adminView(a *domain.Auction) AdminAuctionResponse {
	return AdminAuctionResponse{
		ID:           a.ID,
		Slug:         a.Slug,
		Title:        a.Title,
		Description:  a.Description,
		StartsAt:     a.StartsAt,
		EndsAt:       a.EndsAt,
		StartingBid:  a.StartingBid,
		MinIncrement: a.MinIncrement,
		MaxIncrement: a.MaxIncrement,
		CurrentBid:   a.CurrentBid,
		BidCount:     len(a.Bids),
		State:        a.StateAt(h.engine.Now()).String(),
	}
}

func (h *AdminHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if !h.creds.Verify(req.Username, req.Password) {
		h.log.Warn("admin login rejected", "username", req.Username, "remote_ip", c.RealIP())
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid username or password"})
	}

	session, _ := h.sessions.Get(c.Request(), h.sessionName)
	session.Values[middleware.AuthenticatedKey] = true
	if err := session.Save(c.Request(), c.Response()); err != nil {
		h.log.Error("failed to save session", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	h.log.Info("admin logged in", "username", req.Username)
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminHandler) Logout(c echo.Context) error {
	session, _ := h.sessions.Get(c.Request(), h.sessionName)
	session.Values[middleware.AuthenticatedKey] = false
	session.Options.MaxAge = -1
	if err := session.Save(c.Request(), c.Response()); err != nil {
		h.log.Error("failed to clear session", "error", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminHandler) CreateAuction(c echo.Context) error {
	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	auction, err := h.engine.CreateAuction(c.Request().Context(), services.CreateAuctionParams{
		Title:        req.Title,
		Description:  req.Description,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		StartingBid:  req.StartingBid,
		MinIncrement: req.MinIncrement,
		MaxIncrement: req.MaxIncrement,
	})
	if err != nil {
		if isValidationError(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		h.log.Error("failed to create auction", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create auction"})
	}

	return c.JSON(http.StatusCreated, h.adminView(auction))
}

func (h *AdminHandler) ListAuctions(c echo.Context) error {
	auctions := h.engine.ListAuctions()
	views := make([]AdminAuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		views = append(views, h.adminView(a))
	}
	return c.JSON(http.StatusOK, views)
}

func (h *AdminHandler) GetAuction(c echo.Context) error {
	a, err := h.engine.GetAuctionByID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
	}
	return c.JSON(http.StatusOK, h.adminView(a))
}

func (h *AdminHandler) UpdateAuction(c echo.Context) error {
	var req UpdateAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	auction, err := h.engine.UpdateAuction(c.Request().Context(), c.Param("id"), services.UpdateAuctionParams{
		Title:             req.Title,
		Description:       req.Description,
		StartsAt:          req.StartsAt,
		EndsAt:            req.EndsAt,
		StartingBid:       req.StartingBid,
		MinIncrement:      req.MinIncrement,
		MaxIncrement:      req.MaxIncrement,
		ClearMaxIncrement: req.ClearMaxIncrement,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
		}
		if isValidationError(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		h.log.Error("failed to update auction", "auction_id", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update auction"})
	}

	return c.JSON(http.StatusOK, h.adminView(auction))
}

func (h *AdminHandler) DeleteAuction(c echo.Context) error {
	if err := h.engine.DeleteAuction(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
		}
		h.log.Error("failed to delete auction", "auction_id", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete auction"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *AdminHandler) RotateCredentials(c echo.Context) error {
	var req RotateCredentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	err := h.creds.Rotate(c.Request().Context(), req.CurrentPassword, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCredentials) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		}
		if errors.Is(err, services.ErrWeakPassword) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		h.log.Error("failed to rotate credentials", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrInvalidTimeWindow) ||
		errors.Is(err, domain.ErrInvalidIncrement) ||
		errors.Is(err, domain.ErrInvalidMaxIncrement) ||
		errors.Is(err, domain.ErrInvalidStartingBid)
}
