package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditrepo "github.com/teblo/teblo/internal/audit/repository"
	auditservice "github.com/teblo/teblo/internal/audit/service"
	"github.com/teblo/teblo/internal/auth"
	clientrepo "github.com/teblo/teblo/internal/client/repository"
	clientservice "github.com/teblo/teblo/internal/client/service"
	"github.com/teblo/teblo/internal/config"
	invoicerepo "github.com/teblo/teblo/internal/invoice/repository"
	invoiceservice "github.com/teblo/teblo/internal/invoice/service"
	"github.com/teblo/teblo/internal/migration"
	"github.com/teblo/teblo/internal/providers/pdf"
	"github.com/teblo/teblo/internal/server"
	settingsrepo "github.com/teblo/teblo/internal/settings/repository"
	settingsservice "github.com/teblo/teblo/internal/settings/service"
	"github.com/teblo/teblo/pkg/db"
	"go.uber.org/zap"
)

type testEnv struct {
	baseURL  string
	token    string
	verifier *auth.Verifier
	httpSrv  *httptest.Server
}

var env *testEnv

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	var err error
	env, err = startEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start test environment:", err)
		os.Exit(1)
	}

	code := m.Run()
	env.httpSrv.Close()
	os.Exit(code)
}

func startEnv() (*testEnv, error) {
	cfg := config.Config{
		AuthSecret: "e2e-secret",
		AuthIssuer: "teblo",
	}

	conn, err := db.NewTest()
	if err != nil {
		return nil, err
	}
	if err := migration.AutoMigrate(conn); err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(7)
	if err != nil {
		return nil, err
	}

	log := zap.NewNop()

	settingsSvc := settingsservice.New(settingsservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Repo:  settingsrepo.Provide(),
	})
	clientSvc := clientservice.New(clientservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Repo:  clientrepo.Provide(),
	})
	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
	invoiceSvc := invoiceservice.New(invoiceservice.Params{
		DB:          conn,
		Log:         log,
		GenID:       node,
		Repo:        invoicerepo.Provide(),
		SettingsSvc: settingsSvc,
		ClientSvc:   clientSvc,
		AuditSvc:    auditSvc,
	})

	verifier := auth.NewVerifier(cfg)
	srv := server.NewServer(server.ServerParams{
		Gin:         server.NewEngine(),
		Cfg:         cfg,
		Log:         log,
		Verifier:    verifier,
		ClientSvc:   clientSvc,
		InvoiceSvc:  invoiceSvc,
		SettingsSvc: settingsSvc,
		AuditSvc:    auditSvc,
		PDFProvider: pdf.New(),
	})

	token, err := verifier.IssueToken("e2e-user", time.Hour)
	if err != nil {
		return nil, err
	}

	httpSrv := httptest.NewServer(srv.Engine())

	return &testEnv{
		baseURL:  httpSrv.URL,
		token:    token,
		verifier: verifier,
		httpSrv:  httpSrv,
	}, nil
}

func TestE2E_HealthCheck(t *testing.T) {
	resp, err := http.Get(env.baseURL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestE2E_RequiresAuthentication(t *testing.T) {
	resp, body := doJSON(t, http.MethodGet, env.baseURL+"/api/invoices", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, http.MethodGet, env.baseURL+"/api/invoices", nil, "not-a-token")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for garbage token, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2E_InvoiceLifecycle(t *testing.T) {
	clientID := createClient(t, "Lifecycle Client")

	invoice := struct {
		ID            string `json:"id"`
		DisplayNumber string `json:"display_number"`
		Status        string `json:"status"`
		TotalAmount   string `json:"total_amount"`
	}{}
	createReq := map[string]any{
		"client_id": clientID,
		"items": []map[string]any{
			{"description": "Consulting", "quantity": "10", "unit_price": "80", "vat_rate": "21"},
		},
	}
	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/api/invoices", createReq, env.token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create invoice failed: %d: %s", resp.StatusCode, string(body))
	}
	decode(t, body, &invoice)
	if invoice.Status != "PENDING" {
		t.Fatalf("expected status PENDING, got %s", invoice.Status)
	}
	if invoice.DisplayNumber == "" {
		t.Fatalf("expected a display number")
	}

	// Partial payment leaves the invoice PARTIALLY_PAID.
	payReq := map[string]any{"amount": "500", "type": "PARTIAL"}
	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/api/invoices/"+invoice.ID+"/payments", payReq, env.token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("record payment failed: %d: %s", resp.StatusCode, string(body))
	}
	if status := invoiceStatus(t, invoice.ID); status != "PARTIALLY_PAID" {
		t.Fatalf("expected PARTIALLY_PAID, got %s", status)
	}

	// Settle the remainder.
	payReq = map[string]any{"amount": "468", "type": "FULL"}
	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/api/invoices/"+invoice.ID+"/payments", payReq, env.token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("record final payment failed: %d: %s", resp.StatusCode, string(body))
	}
	if status := invoiceStatus(t, invoice.ID); status != "PAID" {
		t.Fatalf("expected PAID, got %s", status)
	}

	// Paid invoices with payment history cannot be deleted.
	resp, body = doJSON(t, http.MethodDelete, env.baseURL+"/api/invoices/"+invoice.ID, nil, env.token)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409 deleting paid invoice, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2E_ProFormaConversion(t *testing.T) {
	clientID := createClient(t, "Pro Forma Client")

	invoice := struct {
		ID            string `json:"id"`
		DisplayNumber string `json:"display_number"`
		Status        string `json:"status"`
	}{}
	createReq := map[string]any{
		"client_id": clientID,
		"pro_forma": true,
		"items": []map[string]any{
			{"description": "Retainer", "quantity": "1", "unit_price": "1200", "vat_rate": "21"},
		},
	}
	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/api/invoices", createReq, env.token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create pro forma failed: %d: %s", resp.StatusCode, string(body))
	}
	decode(t, body, &invoice)
	if invoice.Status != "PRO_FORMA" {
		t.Fatalf("expected PRO_FORMA, got %s", invoice.Status)
	}

	// Pro forma documents do not take payments.
	payReq := map[string]any{"amount": "100"}
	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/api/invoices/"+invoice.ID+"/payments", payReq, env.token)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409 paying pro forma, got %d: %s", resp.StatusCode, string(body))
	}

	converted := struct {
		DisplayNumber  string `json:"display_number"`
		ProFormaNumber int64  `json:"pro_forma_number"`
		Status         string `json:"status"`
	}{}
	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/api/invoices/"+invoice.ID+"/convert", nil, env.token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("convert failed: %d: %s", resp.StatusCode, string(body))
	}
	decode(t, body, &converted)
	if converted.Status != "PENDING" {
		t.Fatalf("expected PENDING after conversion, got %s", converted.Status)
	}
	if converted.DisplayNumber == invoice.DisplayNumber {
		t.Fatalf("expected a definitive number after conversion")
	}

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/api/invoices/"+invoice.ID+"/convert", nil, env.token)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409 converting twice, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2E_CancelAndPDF(t *testing.T) {
	clientID := createClient(t, "Cancel Client")

	invoice := struct {
		ID string `json:"id"`
	}{}
	createReq := map[string]any{
		"client_id": clientID,
		"items": []map[string]any{
			{"description": "Design work", "quantity": "4", "unit_price": "150", "vat_rate": "21"},
		},
	}
	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/api/invoices", createReq, env.token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create invoice failed: %d: %s", resp.StatusCode, string(body))
	}
	decode(t, body, &invoice)

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/api/invoices/"+invoice.ID+"/cancel", nil, env.token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel failed: %d: %s", resp.StatusCode, string(body))
	}
	if status := invoiceStatus(t, invoice.ID); status != "CANCELLED" {
		t.Fatalf("expected CANCELLED, got %s", status)
	}

	payReq := map[string]any{"amount": "10"}
	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/api/invoices/"+invoice.ID+"/payments", payReq, env.token)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409 paying cancelled invoice, got %d: %s", resp.StatusCode, string(body))
	}

	// The PDF endpoint still renders cancelled invoices.
	req, err := http.NewRequest(http.MethodGet, env.baseURL+"/api/invoices/"+invoice.ID+"/pdf", nil)
	if err != nil {
		t.Fatalf("build pdf request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+env.token)
	pdfResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("pdf request failed: %v", err)
	}
	defer pdfResp.Body.Close()
	if pdfResp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for pdf, got %d", pdfResp.StatusCode)
	}
	if ct := pdfResp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}
	data, err := io.ReadAll(pdfResp.Body)
	if err != nil {
		t.Fatalf("read pdf body: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected a pdf document")
	}
}

func TestE2E_ValidationErrors(t *testing.T) {
	clientID := createClient(t, "Validation Client")

	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/api/invoices", map[string]any{
		"client_id": clientID,
		"items":     []map[string]any{},
	}, env.token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for empty items, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, http.MethodGet, env.baseURL+"/api/invoices/not-an-id", nil, env.token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for malformed id, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, http.MethodGet, env.baseURL+"/api/invoices/1234567890123456789", nil, env.token)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown invoice, got %d: %s", resp.StatusCode, string(body))
	}
}

func createClient(t *testing.T, name string) string {
	t.Helper()

	created := struct {
		ID string `json:"id"`
	}{}
	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/api/clients", map[string]any{
		"name":  name,
		"email": "e2e@client.test",
	}, env.token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create client failed: %d: %s", resp.StatusCode, string(body))
	}
	decode(t, body, &created)
	if created.ID == "" {
		t.Fatalf("expected client id")
	}
	return created.ID
}

func invoiceStatus(t *testing.T, id string) string {
	t.Helper()

	payload := struct {
		Invoice struct {
			Status string `json:"status"`
		} `json:"invoice"`
	}{}
	resp, body := doJSON(t, http.MethodGet, env.baseURL+"/api/invoices/"+id, nil, env.token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get invoice failed: %d: %s", resp.StatusCode, string(body))
	}
	decode(t, body, &payload)
	return payload.Invoice.Status
}

func decode(t *testing.T, body []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("decode response: %v: %s", err, string(body))
	}
}

func doJSON(t *testing.T, method, reqURL string, payload any, token string) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode json: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, reqURL, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}
