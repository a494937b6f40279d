package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/config"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/database"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/identity"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/qr"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/routes"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/services"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	services.PasswordCost = bcrypt.MinCost
}

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTAccessExpiry:    15 * time.Minute,
		JWTRefreshExpiry:   time.Hour,
		QRSecret:           "qr-secret",
		QRTokenTTL:         10 * time.Minute,
		QRRequireSignature: true,
		SeedEnabled:        true,
	}
	signer, err := identity.NewSigner(cfg.QRSecret, cfg.QRTokenTTL)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	registry := tenant.NewRegistry()
	identityService := services.NewIdentityService(db, signer, cfg.QRRequireSignature)
	ledgerService := services.NewLedgerService(db)
	rewardService := services.NewRewardService(db)
	settingsService := services.NewSettingsService(db)

	app := fiber.New()
	routes.Setup(app, cfg, db, registry, routes.Handlers{
		Auth:     handlers.NewAuthHandler(services.NewAuthService(db, cfg)),
		Health:   handlers.NewHealthHandler(db, registry),
		Business: handlers.NewBusinessHandler(rewardService, settingsService),
		Customer: handlers.NewCustomerHandler(identityService, ledgerService, settingsService, qr.NewEncoder(), int64(cfg.QRTokenTTL.Seconds())),
		Scan:     handlers.NewScanHandler(identityService, ledgerService, settingsService, qr.NewDecoder()),
		Reward:   handlers.NewRewardHandler(rewardService, identityService),
		Settings: handlers.NewSettingsHandler(settingsService),
		Admin:    handlers.NewAdminHandler(services.NewBusinessService(db, registry, settingsService)),
		Seed:     handlers.NewSeedHandler(services.NewSeedService(db, registry, settingsService)),
	})

	s := &testServer{app: app, db: db}
	if resp := s.do(t, http.MethodGet, "/api/seed", "", nil); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("seed returned %d", resp.StatusCode)
	}
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) []byte {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if v != nil {
		if err := json.Unmarshal(b, v); err != nil {
			t.Fatalf("decode %s: %v", b, err)
		}
	}
	return b
}

func (s *testServer) login(t *testing.T, kind string, body map[string]string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/auth/"+kind+"/login", "", body)
	var out struct {
		AccessToken string `json:"access_token"`
	}
	raw := decode(t, resp, &out)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("%s login returned %d: %s", kind, resp.StatusCode, raw)
	}
	return out.AccessToken
}

func (s *testServer) customerToken(t *testing.T) string {
	return s.login(t, models.KindCustomer, map[string]string{
		"mobile": services.SeedCustomerPhone, "password": services.SeedCustomerPassword,
	})
}

func (s *testServer) ownerToken(t *testing.T) string {
	return s.login(t, models.KindBusiness, map[string]string{
		"username": services.SeedOwnerUsername, "password": services.SeedOwnerPassword,
	})
}

func TestCustomerLogin(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/auth/customer/login", "", map[string]string{
		"mobile": services.SeedCustomerPhone, "password": services.SeedCustomerPassword,
	})
	var out struct {
		Success     bool   `json:"success"`
		Kind        string `json:"kind"`
		AccessToken string `json:"access_token"`
		User        struct {
			Phone  string `json:"phone"`
			Points int    `json:"points"`
		} `json:"user"`
	}
	raw := decode(t, resp, &out)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	if !out.Success || out.Kind != models.KindCustomer || out.User.Points != services.SeedCustomerPoints || out.User.Phone != services.SeedCustomerPhone {
		t.Fatalf("unexpected response %s", raw)
	}
	if strings.Contains(string(raw), "password") {
		t.Fatalf("response leaks password material: %s", raw)
	}

	resp = s.do(t, http.MethodGet, "/api/me", out.AccessToken, nil)
	var me struct {
		Kind string `json:"kind"`
	}
	decode(t, resp, &me)
	if resp.StatusCode != fiber.StatusOK || me.Kind != models.KindCustomer {
		t.Fatalf("me returned %d kind=%q", resp.StatusCode, me.Kind)
	}
}

func TestLoginStatuses(t *testing.T) {
	s := newTestServer(t)
	if err := s.db.Model(&models.Reseller{}).
		Where("username = ?", services.SeedResellerUsername).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate reseller: %v", err)
	}

	tests := []struct {
		name string
		kind string
		body map[string]string
		want int
	}{
		{"missing password", "customer", map[string]string{"mobile": services.SeedCustomerPhone}, fiber.StatusBadRequest},
		{"unknown mobile", "customer", map[string]string{"mobile": "09000000000", "password": "x"}, fiber.StatusNotFound},
		{"wrong password", "customer", map[string]string{"mobile": services.SeedCustomerPhone, "password": "nope"}, fiber.StatusUnauthorized},
		{"unknown kind", "robot", map[string]string{"username": "x", "password": "x"}, fiber.StatusNotFound},
		{"inactive reseller", "reseller", map[string]string{"username": services.SeedResellerUsername, "password": services.SeedResellerPassword}, fiber.StatusForbidden},
		{"superadmin", "superadmin", map[string]string{"username": services.SeedSuperAdminUsername, "password": services.SeedSuperAdminPassword}, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, http.MethodPost, "/api/auth/"+tt.kind+"/login", "", tt.body)
			raw := decode(t, resp, nil)
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, resp.StatusCode, raw)
			}
		})
	}
}

func TestScanAndVerify(t *testing.T) {
	s := newTestServer(t)
	customer := s.customerToken(t)
	owner := s.ownerToken(t)

	resp := s.do(t, http.MethodGet, "/api/business/demo-cafe/customer/identity", customer, nil)
	var ident struct {
		Payload   string `json:"payload"`
		ExpiresIn int64  `json:"expires_in"`
	}
	decode(t, resp, &ident)
	if resp.StatusCode != fiber.StatusOK || ident.Payload == "" || ident.ExpiresIn != 600 {
		t.Fatalf("identity returned %d %+v", resp.StatusCode, ident)
	}

	resp = s.do(t, http.MethodPost, "/api/business/demo-cafe/scan", owner, map[string]string{"payload": ident.Payload})
	var scan struct {
		Success  bool `json:"success"`
		Signed   bool `json:"signed"`
		Customer struct {
			Phone  string `json:"phone"`
			Points int    `json:"points"`
		} `json:"customer"`
	}
	raw := decode(t, resp, &scan)
	if resp.StatusCode != fiber.StatusOK || !scan.Signed || scan.Customer.Phone != services.SeedCustomerPhone {
		t.Fatalf("scan returned %d: %s", resp.StatusCode, raw)
	}

	resp = s.do(t, http.MethodPost, "/api/business/demo-cafe/verify", owner, map[string]interface{}{
		"payload": ident.Payload, "points": 500, "amount": "125000",
	})
	var verify struct {
		Balance  int `json:"balance"`
		Customer struct {
			Points int `json:"points"`
		} `json:"customer"`
	}
	raw = decode(t, resp, &verify)
	if resp.StatusCode != fiber.StatusOK || verify.Balance != 2000 || verify.Customer.Points != 2000 {
		t.Fatalf("verify returned %d: %s", resp.StatusCode, raw)
	}

	resp = s.do(t, http.MethodGet, "/api/customer/transactions", customer, nil)
	var history struct {
		Balance      int `json:"balance"`
		Transactions []struct {
			PointsEarned int `json:"points_earned"`
		} `json:"transactions"`
	}
	raw = decode(t, resp, &history)
	if resp.StatusCode != fiber.StatusOK || history.Balance != 2000 || len(history.Transactions) != 1 {
		t.Fatalf("transactions returned %d: %s", resp.StatusCode, raw)
	}
}

func TestScanRejectsOtherBusinessCode(t *testing.T) {
	s := newTestServer(t)
	other := models.Business{Name: "Other Shop", Slug: "other-shop", Phone: "02111111111"}
	if err := s.db.Create(&other).Error; err != nil {
		t.Fatalf("create business: %v", err)
	}
	customer := s.customerToken(t)
	owner := s.ownerToken(t)

	resp := s.do(t, http.MethodGet, "/api/business/other-shop/customer/identity", customer, nil)
	var ident struct {
		Payload string `json:"payload"`
	}
	decode(t, resp, &ident)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("identity returned %d", resp.StatusCode)
	}

	resp = s.do(t, http.MethodPost, "/api/business/demo-cafe/scan", owner, map[string]string{"payload": ident.Payload})
	var rejected struct {
		Reason string `json:"reason"`
	}
	raw := decode(t, resp, &rejected)
	if resp.StatusCode != fiber.StatusUnprocessableEntity || rejected.Reason != "scope_mismatch" {
		t.Fatalf("expected 422 scope_mismatch, got %d: %s", resp.StatusCode, raw)
	}

	resp = s.do(t, http.MethodPost, "/api/business/other-shop/scan", owner, map[string]string{"payload": ident.Payload})
	decode(t, resp, nil)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("staff of another business should get 403, got %d", resp.StatusCode)
	}

	resp = s.do(t, http.MethodPost, "/api/business/demo-cafe/scan", customer, map[string]string{"payload": ident.Payload})
	decode(t, resp, nil)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("customer token on staff route should get 403, got %d", resp.StatusCode)
	}
}

func TestQRCodeAndPublicRoutes(t *testing.T) {
	s := newTestServer(t)
	customer := s.customerToken(t)

	resp := s.do(t, http.MethodGet, "/api/business/demo-cafe/customer/qr.png?size=512", customer, nil)
	png := decode(t, resp, nil)
	if resp.StatusCode != fiber.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("qr.png returned %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	raw, err := qr.NewDecoder().DecodeReader(bytes.NewReader(png))
	if err != nil {
		t.Fatalf("rendered code does not decode: %v", err)
	}
	if p, err := identity.Decode(raw); err != nil || p.BusinessSlug != "demo-cafe" || !p.Signed() {
		t.Fatalf("unexpected payload %q (%v)", raw, err)
	}

	resp = s.do(t, http.MethodGet, "/api/business/no-such-shop/config", "", nil)
	decode(t, resp, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unknown business should be 404, got %d", resp.StatusCode)
	}

	resp = s.do(t, http.MethodGet, "/api/business/demo-cafe/customer/identity", "", nil)
	decode(t, resp, nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("missing token should be 401, got %d", resp.StatusCode)
	}

	resp = s.do(t, http.MethodGet, "/api/health", "", nil)
	var health struct {
		Status        string `json:"status"`
		UserCount     int64  `json:"user_count"`
		BusinessCount int    `json:"business_count"`
	}
	decode(t, resp, &health)
	if resp.StatusCode != fiber.StatusOK || health.Status != "healthy" || health.UserCount != 1 {
		t.Fatalf("health returned %d %+v", resp.StatusCode, health)
	}
}

func TestBusinessRecord(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/business/demo-cafe", "", nil)
	var out struct {
		Success  bool `json:"success"`
		Business struct {
			ID   uint   `json:"id"`
			Slug string `json:"slug"`
			Name string `json:"name"`
		} `json:"business"`
	}
	raw := decode(t, resp, &out)
	if resp.StatusCode != fiber.StatusOK || !out.Success || out.Business.Slug != services.SeedBusinessSlug || out.Business.Name != services.SeedBusinessName || out.Business.ID == 0 {
		t.Fatalf("business returned %d: %s", resp.StatusCode, raw)
	}

	resp = s.do(t, http.MethodGet, "/api/business/no-such-shop", "", nil)
	var missing struct {
		Error bool `json:"error"`
	}
	raw = decode(t, resp, &missing)
	if resp.StatusCode != fiber.StatusNotFound || !missing.Error {
		t.Fatalf("unknown business should be 404, got %d: %s", resp.StatusCode, raw)
	}
}

func TestVisitCreditCannotBeNegative(t *testing.T) {
	s := newTestServer(t)
	customer := s.customerToken(t)
	owner := s.ownerToken(t)

	for _, value := range []string{"-700", "0"} {
		resp := s.do(t, http.MethodPut, "/api/business/demo-cafe/config/points_per_scan", owner, map[string]string{"value": value})
		raw := decode(t, resp, nil)
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("points_per_scan=%s should be rejected, got %d: %s", value, resp.StatusCode, raw)
		}
	}
	resp := s.do(t, http.MethodPut, "/api/business/demo-cafe/config/qr_size", owner, map[string]string{"value": "200000"})
	raw := decode(t, resp, nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("qr_size=200000 should be rejected, got %d: %s", resp.StatusCode, raw)
	}

	resp = s.do(t, http.MethodGet, "/api/business/demo-cafe/customer/identity", customer, nil)
	var ident struct {
		Payload string `json:"payload"`
	}
	decode(t, resp, &ident)

	resp = s.do(t, http.MethodPost, "/api/business/demo-cafe/verify", owner, map[string]string{"payload": ident.Payload})
	var verify struct {
		Balance     int `json:"balance"`
		Transaction struct {
			PointsEarned int `json:"points_earned"`
		} `json:"transaction"`
	}
	raw = decode(t, resp, &verify)
	if resp.StatusCode != fiber.StatusOK || verify.Transaction.PointsEarned != 10 || verify.Balance != services.SeedCustomerPoints+10 {
		t.Fatalf("default visit credit: got %d: %s", resp.StatusCode, raw)
	}
}
