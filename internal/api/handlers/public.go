package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"auctionhouse/internal/domain"
	"auctionhouse/internal/services"
	"auctionhouse/pkg/logger"
)

// PublicHandler serves the unauthenticated read/bid surface. Clients poll
// the status endpoint; there is no push channel.
type PublicHandler struct {
	engine *services.Engine
	log    logger.Logger
}

func NewPublicHandler(engine *services.Engine, log logger.Logger) *PublicHandler {
	return &PublicHandler{engine: engine, log: log}
}

type AuctionView struct {
	Slug         string               `json:"slug"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	StartingBid  float64              `json:"starting_bid"`
	MinIncrement float64              `json:"min_increment"`
	MaxIncrement *float64             `json:"max_increment,omitempty"`
	BidCount     int                  `json:"bid_count"`
	Status       domain.AuctionStatus `json:"status"`
}

type PlaceBidRequest struct {
	Amount float64 `json:"amount"`
	Bidder string  `json:"bidder"`
}

type PlaceBidResponse struct {
	OK         bool    `json:"ok"`
	CurrentBid float64 `json:"current_bid"`
	Error      string  `json:"error,omitempty"`
}

func (h *PublicHandler) auctionView(a *domain.Auction, now time.Time) AuctionView {
	return AuctionView{
		Slug:         a.Slug,
		Title:        a.Title,
		Description:  a.Description,
		StartingBid:  a.StartingBid,
		MinIncrement: a.MinIncrement,
		MaxIncrement: a.MaxIncrement,
		BidCount:     len(a.Bids),
		Status:       a.StatusAt(now),
	}
}

func (h *PublicHandler) ListAuctions(c echo.Context) error {
	now := h.engine.Now()
	auctions := h.engine.ListAuctions()

	views := make([]AuctionView, 0, len(auctions))
	for _, a := range auctions {
		views = append(views, h.auctionView(a, now))
	}
	return c.JSON(http.StatusOK, views)
}

func (h *PublicHandler) GetAuction(c echo.Context) error {
	slug := c.Param("slug")

	a, err := h.engine.GetAuction(slug)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
	}
	return c.JSON(http.StatusOK, h.auctionView(a, h.engine.Now()))
}

func (h *PublicHandler) GetStatus(c echo.Context) error {
	slug := c.Param("slug")

	status, err := h.engine.Status(slug)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
	}
	return c.JSON(http.StatusOK, status)
}

func (h *PublicHandler) PlaceBid(c echo.Context) error {
	slug := c.Param("slug")

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("failed to bind bid request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	newBid, err := h.engine.PlaceBid(c.Request().Context(), slug, req.Amount, req.Bidder)
	if err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return c.JSON(http.StatusNotFound, PlaceBidResponse{OK: false, Error: "auction not found"})
		}
		if rej, ok := domain.AsRejection(err); ok {
			// Rejections are expected outcomes, not faults.
			resp := PlaceBidResponse{OK: false, Error: rej.Message}
			if status, serr := h.engine.Status(slug); serr == nil {
				resp.CurrentBid = status.CurrentBid
			}
			return c.JSON(http.StatusOK, resp)
		}
		h.log.Error("failed to place bid", "slug", slug, "error", err)
		return c.JSON(http.StatusInternalServerError, PlaceBidResponse{OK: false, Error: "internal error"})
	}

	return c.JSON(http.StatusOK, PlaceBidResponse{OK: true, CurrentBid: newBid})
}
