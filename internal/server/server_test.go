package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"receipt-resender/internal/dtos"
	"receipt-resender/internal/entities"
	"testing"
	"time"
)

func testPlan() []*entities.ResubmissionPayload {
	return []*entities.ResubmissionPayload{{
		Type:        entities.ReceiptTypeRefund,
		Send:        true,
		Customer:    entities.CustomerContact{Email: "a@example.com"},
		Items:       []entities.LineItem{{"description": "A"}, {"description": "B"}},
		Settlements: []entities.Settlement{{Type: entities.SettlementPrepayment, Amount: entities.Amount{Value: "10.00", Currency: "RUB"}}},
		RefundID:    "rf1",
		ReceiptID:   "r1",
	}}
}

func newTestServer(token string) *HttpServer {
	s := NewServer("127.0.0.1:0", token, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.plan = testPlan()
	s.decision = decisionPending
	s.decided = make(chan struct{})
	return s
}

func do(t *testing.T, h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("X-Approval-Token", token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetPlan(t *testing.T) {
	s := newTestServer("tok")
	h := s.createHTTPServer().Handler

	rec := do(t, h, http.MethodGet, "/plan", "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") == "" {
		t.Errorf("expected no-cache headers")
	}

	var resp dtos.PlanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Decision != decisionPending || len(resp.Entries) != 1 {
		t.Fatalf("unexpected plan: %+v", resp)
	}
	e := resp.Entries[0]
	if e.Reference != "refund_id=rf1" || e.Items != 2 || e.Amount != "10.00 RUB" || e.Customer["email"] != "a@example.com" {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestTokenRequired(t *testing.T) {
	s := newTestServer("tok")
	h := s.createHTTPServer().Handler

	if rec := do(t, h, http.MethodPost, "/confirm", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/healthcheck", ""); rec.Code != http.StatusOK {
		t.Errorf("healthcheck must stay open, got %d", rec.Code)
	}
	if s.decision != decisionPending {
		t.Errorf("unauthorized request changed the decision")
	}
}

func TestFirstDecisionWins(t *testing.T) {
	s := newTestServer("")
	h := s.createHTTPServer().Handler

	if rec := do(t, h, http.MethodPost, "/decline", ""); rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/confirm", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for a late confirm, got %d", rec.Code)
	}
	var resp dtos.DecisionResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Decision != decisionDeclined {
		t.Errorf("decision changed to %q", resp.Decision)
	}
}

func TestConfirmOverHTTP(t *testing.T) {
	for _, tc := range []struct {
		path string
		want bool
	}{
		{"/confirm", true},
		{"/decline", false},
	} {
		t.Run(tc.path, func(t *testing.T) {
			s := NewServer("127.0.0.1:0", "tok", slog.New(slog.NewTextHandler(io.Discard, nil)))
			addr, err := s.Listen()
			if err != nil {
				t.Fatalf("listen: %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			type result struct {
				ok  bool
				err error
			}
			done := make(chan result, 1)
			go func() {
				ok, err := s.Confirm(ctx, testPlan())
				done <- result{ok, err}
			}()

			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+addr.String()+tc.path, nil)
			req.Header.Set("X-Approval-Token", "tok")
			var resp *http.Response
			for {
				resp, err = http.DefaultClient.Do(req)
				if err == nil {
					break
				}
				if ctx.Err() != nil {
					t.Fatalf("request failed: %v", err)
				}
				time.Sleep(10 * time.Millisecond)
			}
			resp.Body.Close()

			res := <-done
			if res.err != nil {
				t.Fatalf("unexpected error: %v", res.err)
			}
			if res.ok != tc.want {
				t.Errorf("expected %v, got %v", tc.want, res.ok)
			}
		})
	}
}

func TestConfirmCanceled(t *testing.T) {
	s := NewServer("127.0.0.1:0", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := s.Confirm(ctx, testPlan())
	if ok || err == nil {
		t.Errorf("expected cancellation, got %v, %v", ok, err)
	}
}
