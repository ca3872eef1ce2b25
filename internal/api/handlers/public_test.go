package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"auctionhouse/internal/domain"
	"auctionhouse/internal/services"
	"auctionhouse/internal/store"
	"auctionhouse/pkg/logger"
)

type memSnaps struct{}

func (memSnaps) Load(ctx context.Context) (*domain.Snapshot, error)    { return nil, nil }
func (memSnaps) Save(ctx context.Context, snap *domain.Snapshot) error { return nil }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func setupPublic(t *testing.T) (*echo.Echo, *PublicHandler, *domain.Auction) {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := store.New(memSnaps{}, logger.NewNop())
	engine := services.NewEngine(st, fixedClock{now: now}, logger.NewNop())

	cap := 100.0
	a, err := engine.CreateAuction(context.Background(), services.CreateAuctionParams{
		Title:        "Antique Clock",
		StartsAt:     now.Add(-time.Hour),
		EndsAt:       now.Add(time.Hour),
		StartingBid:  50,
		MinIncrement: 1,
		MaxIncrement: &cap,
	})
	if err != nil {
		t.Fatalf("CreateAuction: %v", err)
	}

	return echo.New(), NewPublicHandler(engine, logger.NewNop()), a
}

func postBid(t *testing.T, e *echo.Echo, h *PublicHandler, slug, body string) (*httptest.ResponseRecorder, PlaceBidResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auctions/"+slug+"/bids", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("slug")
	c.SetParamValues(slug)

	if err := h.PlaceBid(c); err != nil {
		t.Fatalf("PlaceBid handler: %v", err)
	}

	var resp PlaceBidResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return rec, resp
}

func TestPlaceBidHandler_Accept(t *testing.T) {
	e, h, a := setupPublic(t)

	rec, resp := postBid(t, e, h, a.Slug, `{"amount": 60, "bidder": "alice"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !resp.OK || resp.CurrentBid != 60 || resp.Error != "" {
		t.Errorf("response = %+v, want ok with current_bid 60", resp)
	}
}

func TestPlaceBidHandler_Rejections(t *testing.T) {
	e, h, a := setupPublic(t)

	if _, resp := postBid(t, e, h, a.Slug, `{"amount": 60, "bidder": "alice"}`); !resp.OK {
		t.Fatalf("setup bid rejected: %+v", resp)
	}

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"too low", `{"amount": 55}`, "bid must be higher than the current bid"},
		{"below min increment", `{"amount": 60.5}`, "bid does not meet the minimum increment"},
		{"above max increment", `{"amount": 200}`, "bid exceeds the maximum increment"},
	}

	for _, tt := range tests {
		rec, resp := postBid(t, e, h, a.Slug, tt.body)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200 (rejections are expected outcomes)", tt.name, rec.Code)
		}
		if resp.OK {
			t.Errorf("%s: response marked ok", tt.name)
		}
		if resp.Error != tt.wantError {
			t.Errorf("%s: error = %q, want %q", tt.name, resp.Error, tt.wantError)
		}
		if resp.CurrentBid != 60 {
			t.Errorf("%s: current_bid = %v, want 60", tt.name, resp.CurrentBid)
		}
	}
}

func TestPlaceBidHandler_UnknownSlug(t *testing.T) {
	e, h, _ := setupPublic(t)

	rec, resp := postBid(t, e, h, "no-such-lot", `{"amount": 60}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if resp.OK {
		t.Error("response marked ok for unknown slug")
	}
}

func TestPlaceBidHandler_MalformedBody(t *testing.T) {
	e, h, a := setupPublic(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auctions/"+a.Slug+"/bids", strings.NewReader(`{"amount": "sixty"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("slug")
	c.SetParamValues(a.Slug)

	if err := h.PlaceBid(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	e, h, a := setupPublic(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auctions/"+a.Slug+"/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("slug")
	c.SetParamValues(a.Slug)

	if err := h.GetStatus(c); err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var status domain.AuctionStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !status.HasStarted || !status.Active || status.Ended {
		t.Errorf("status flags = %+v, want active", status)
	}
	if status.CurrentBid != 50 {
		t.Errorf("current_bid = %v, want 50", status.CurrentBid)
	}
}
