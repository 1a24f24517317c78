package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"ledger_system/internal/config"
	"ledger_system/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// performRequest performs a request against the engine with an optional bearer token
func performRequest(r http.Handler, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// jsonBody marshals v into a request body
func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(b)
}

func setupTestServer(t *testing.T) *gin.Engine {
	// Integration tests are opt-in. Set DB_DSN and REDIS_ADDR to run them.
	dsn := os.Getenv("DB_DSN")
	redisAddr := os.Getenv("REDIS_ADDR")
	if dsn == "" || redisAddr == "" {
		t.Skip("integration tests are disabled; set DB_DSN and REDIS_ADDR to enable")
	}
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Transaction{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	// Start every run from an empty ledger so totals are deterministic
	db.Exec("DELETE FROM transactions")
	db.Exec("DELETE FROM users")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	rdb.FlushDB(context.Background())
	cfg := &config.Config{JWTSecret: "integration-test-secret", TokenTTLHours: 1}
	r := gin.New()
	SetupRoutes(r, db, rdb, cfg)
	return r
}

// registerAndLogin creates a user and returns its id and bearer token
func registerAndLogin(t *testing.T, r http.Handler, name, email, role string) (uint, string) {
	t.Helper()
	resp := performRequest(r, http.MethodPost, "/users", jsonBody(t, map[string]string{
		"name": name, "email": email, "password": "password123", "role": role,
	}), "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var user struct {
		ID uint `json:"id"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &user)
	resp = performRequest(r, http.MethodPost, "/login", jsonBody(t, map[string]string{
		"email": email, "password": "password123",
	}), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &login)
	if login.Token == "" {
		t.Fatalf("empty token in login response: %s", resp.Body.String())
	}
	return user.ID, login.Token
}

// decodeTransaction decodes a transaction row body
func decodeTransaction(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var row map[string]any
	if err := json.Unmarshal(body, &row); err != nil {
		t.Fatalf("decode transaction: %v body=%s", err, body)
	}
	return row
}

func TestLedgerFlow(t *testing.T) {
	r := setupTestServer(t)
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	adminID, adminToken := registerAndLogin(t, r, "Admin", "admin+"+suffix+"@example.com", "admin")

	// 1. Create a credit transaction and check the echoed row
	resp := performRequest(r, http.MethodPost, "/transactions", jsonBody(t, map[string]any{
		"user_id": adminID, "amount": 100.50, "type": "credit",
		"description": "Payment for services", "customerName": "John Doe",
	}), adminToken)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create transaction failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	created := decodeTransaction(t, resp.Body.Bytes())
	if created["id"] == nil || created["created_at"] == nil || created["updated_at"] == nil {
		t.Fatalf("created row missing id or timestamps: %v", created)
	}
	if got := decimal.RequireFromString(created["amount"].(string)); !got.Equal(decimal.RequireFromString("100.50")) {
		t.Fatalf("amount not echoed: %s", got)
	}
	if created["type"] != "credit" || created["description"] != "Payment for services" || created["customerName"] != "John Doe" {
		t.Fatalf("fields not echoed: %v", created)
	}
	creditID := int(created["id"].(float64))

	// 2. Create a debit transaction
	resp = performRequest(r, http.MethodPost, "/transactions", jsonBody(t, map[string]any{
		"user_id": adminID, "amount": 30.00, "type": "debit",
	}), adminToken)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create debit failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	debitID := int(decodeTransaction(t, resp.Body.Bytes())["id"].(float64))

	// 3. Summary over the ledger: totals and net balance
	resp = performRequest(r, http.MethodGet, "/transactions/summary", nil, adminToken)
	if resp.Code != http.StatusOK {
		t.Fatalf("summary failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	summary := decodeTransaction(t, resp.Body.Bytes())
	if !decimal.RequireFromString(summary["totalCredit"].(string)).Equal(decimal.RequireFromString("100.50")) {
		t.Fatalf("totalCredit = %v", summary["totalCredit"])
	}
	if !decimal.RequireFromString(summary["totalDebit"].(string)).Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("totalDebit = %v", summary["totalDebit"])
	}
	if !decimal.RequireFromString(summary["total"].(string)).Equal(decimal.RequireFromString("70.50")) {
		t.Fatalf("net balance = %v", summary["total"])
	}

	// 4. Partial update keeps unsupplied fields
	resp = performRequest(r, http.MethodPut, fmt.Sprintf("/transactions/%d", creditID), jsonBody(t, map[string]any{
		"description": "Updated description",
	}), adminToken)
	if resp.Code != http.StatusOK {
		t.Fatalf("update failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	updated := decodeTransaction(t, resp.Body.Bytes())
	if updated["description"] != "Updated description" {
		t.Fatalf("description not updated: %v", updated)
	}
	if updated["type"] != "credit" || updated["customerName"] != "John Doe" {
		t.Fatalf("unsupplied fields changed: %v", updated)
	}
	if !decimal.RequireFromString(updated["amount"].(string)).Equal(decimal.RequireFromString("100.50")) {
		t.Fatalf("unsupplied amount changed: %v", updated["amount"])
	}

	// 5. Delete then fetch fails NotFound
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/transactions/%d", debitID), nil, adminToken)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if resp.Body.Len() != 0 {
		t.Fatalf("delete response must be empty, got %s", resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, fmt.Sprintf("/transactions/%d", debitID), nil, adminToken)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}

	// 6. Ownership: /my-transactions never returns another user's rows
	otherID, otherToken := registerAndLogin(t, r, "Other", "other+"+suffix+"@example.com", "user")
	resp = performRequest(r, http.MethodPost, "/transactions", jsonBody(t, map[string]any{
		"user_id": otherID, "amount": 12.34, "type": "debit",
	}), otherToken)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create for other failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	otherTxID := int(decodeTransaction(t, resp.Body.Bytes())["id"].(float64))
	resp = performRequest(r, http.MethodGet, "/my-transactions", nil, adminToken)
	if resp.Code != http.StatusOK {
		t.Fatalf("my-transactions failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var mine []map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &mine)
	for _, row := range mine {
		if uint(row["user_id"].(float64)) != adminID {
			t.Fatalf("my-transactions leaked a foreign row: %v", row)
		}
	}

	// 7. Deleting a user cascades to its transactions
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/users/%d", otherID), nil, adminToken)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete user failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, fmt.Sprintf("/transactions/%d", otherTxID), nil, adminToken)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected cascade 404, got %d body=%s", resp.Code, resp.Body.String())
	}

	// 8. Logout revokes the token
	resp = performRequest(r, http.MethodPost, "/logout", nil, adminToken)
	if resp.Code != http.StatusOK {
		t.Fatalf("logout failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/transactions", nil, adminToken)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.Code)
	}
}

func TestLedgerValidationCreatesNoRow(t *testing.T) {
	r := setupTestServer(t)
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	userID, token := registerAndLogin(t, r, "Val", "val+"+suffix+"@example.com", "user")

	countRows := func() int {
		resp := performRequest(r, http.MethodGet, "/transactions", nil, token)
		if resp.Code != http.StatusOK {
			t.Fatalf("list failed status=%d body=%s", resp.Code, resp.Body.String())
		}
		var rows []map[string]any
		_ = json.Unmarshal(resp.Body.Bytes(), &rows)
		return len(rows)
	}
	before := countRows()

	// Type outside the enum fails validation
	resp := performRequest(r, http.MethodPost, "/transactions", jsonBody(t, map[string]any{
		"user_id": userID, "amount": 10.00, "type": "transfer",
	}), token)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad type, got %d body=%s", resp.Code, resp.Body.String())
	}

	// user_id referencing no existing user fails validation
	resp = performRequest(r, http.MethodPost, "/transactions", jsonBody(t, map[string]any{
		"user_id": 999999, "amount": 10.00, "type": "credit",
	}), token)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for dangling user_id, got %d body=%s", resp.Code, resp.Body.String())
	}
	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if len(body.Errors["user_id"]) == 0 {
		t.Fatalf("expected user_id named in errors, got %s", resp.Body.String())
	}

	if after := countRows(); after != before {
		t.Fatalf("validation failure created rows: before=%d after=%d", before, after)
	}

	// Missing token is unauthorized
	resp = performRequest(r, http.MethodGet, "/transactions", nil, "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}
