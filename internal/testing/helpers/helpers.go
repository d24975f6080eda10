package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/pkg/jwt"
)

// TestSecret signs every token minted by JWTHelper
const TestSecret = "pclub-test-secret-at-least-32-bytes!"

// ============================================================================
// JWT Helpers
// ============================================================================

// JWTHelper mints access tokens for tests
type JWTHelper struct {
	service *jwt.Service
	expired *jwt.Service
}

// NewJWTHelper creates a helper whose tokens validate against Service()
func NewJWTHelper(t *testing.T) *JWTHelper {
	t.Helper()

	return &JWTHelper{
		service: NewTestJWTService(t, 15*time.Minute),
		expired: NewTestJWTService(t, -time.Hour),
	}
}

// Service returns the validator matching the helper's tokens
func (h *JWTHelper) Service() *jwt.Service {
	return h.service
}

// GenerateToken creates a valid token for user
func (h *JWTHelper) GenerateToken(t *testing.T, user *model.User) string {
	t.Helper()
	return sign(t, h.service, user)
}

// GenerateExpiredToken creates a token that expired an hour ago
func (h *JWTHelper) GenerateExpiredToken(t *testing.T, user *model.User) string {
	t.Helper()
	return sign(t, h.expired, user)
}

func sign(t *testing.T, svc *jwt.Service, user *model.User) string {
	t.Helper()
	token, err := svc.Sign(jwt.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		t.Fatalf("helpers: failed to sign token: %v", err)
	}
	return token
}

// NewTestJWTService creates a JWT service on TestSecret with the given access TTL
func NewTestJWTService(t *testing.T, accessTTL time.Duration) *jwt.Service {
	t.Helper()

	svc, err := jwt.NewService(jwt.Config{
		Secret:    []byte(TestSecret),
		Issuer:    "pclub-test",
		AccessTTL: accessTTL,
		OTPTTL:    5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("helpers: failed to create JWT service: %v", err)
	}
	return svc
}

// ============================================================================
// HTTP Request Helpers
// ============================================================================

// RequestBuilder helps construct HTTP requests for testing
type RequestBuilder struct {
	t       *testing.T
	method  string
	path    string
	body    interface{}
	headers map[string]string
	token   string
}

// NewRequest creates a new request builder
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:       t,
		method:  method,
		path:    path,
		headers: make(map[string]string),
	}
}

// WithBody sets the request body (will be JSON encoded)
func (rb *RequestBuilder) WithBody(body interface{}) *RequestBuilder {
	rb.body = body
	return rb
}

// WithHeader adds a header to the request
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithAuth adds a bearer token for user
func (rb *RequestBuilder) WithAuth(tokens *JWTHelper, user *model.User) *RequestBuilder {
	rb.token = tokens.GenerateToken(rb.t, user)
	return rb
}

// WithToken adds a raw bearer token
func (rb *RequestBuilder) WithToken(token string) *RequestBuilder {
	rb.token = token
	return rb
}

// Build creates the HTTP request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	var bodyReader io.Reader
	if rb.body != nil {
		bodyBytes, err := json.Marshal(rb.body)
		if err != nil {
			rb.t.Fatalf("helpers: failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(rb.method, rb.path, bodyReader)
	if rb.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}
	if rb.token != "" {
		req.Header.Set("Authorization", "Bearer "+rb.token)
	}

	return req
}

// ============================================================================
// Response Assertion Helpers
// ============================================================================

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, resp.Code, resp.Body.String())
	}
}

// DecodeError decodes an error envelope and returns its error body
func DecodeError(t *testing.T, resp *httptest.ResponseRecorder) *model.APIError {
	t.Helper()

	var env model.ErrorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode error envelope: %v. Body: %s", err, resp.Body.String())
	}
	if env.Status != "error" || env.Error == nil {
		t.Fatalf("expected an error envelope, got: %s", resp.Body.String())
	}
	return env.Error
}

// AssertAPIError checks the status and, when non-zero, the envelope error code
func AssertAPIError(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, expectedCode model.ErrorCode) {
	t.Helper()

	AssertStatus(t, resp, expectedStatus)
	apiErr := DecodeError(t, resp)
	if expectedCode != 0 && apiErr.Code != expectedCode {
		t.Errorf("expected error code %d, got %d", expectedCode, apiErr.Code)
	}
}

// AssertValidationError checks for a validation error on a specific field
func AssertValidationError(t *testing.T, resp *httptest.ResponseRecorder, field string) {
	t.Helper()

	AssertStatus(t, resp, http.StatusUnprocessableEntity)
	apiErr := DecodeError(t, resp)
	for _, fe := range apiErr.Fields {
		if fe.Field == field {
			return
		}
	}
	t.Errorf("expected validation error on field %q, but not found. Errors: %+v", field, apiErr.Fields)
}

// DecodeData decodes the "data" member of a success envelope into v
func DecodeData(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, resp.Body.String())
	}
	if env.Status != "success" {
		t.Fatalf("expected a success envelope, got: %s", resp.Body.String())
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("failed to decode data: %v. Data: %s", err, string(env.Data))
	}
}

// ============================================================================
// Database Assertion Helpers
// ============================================================================

// AssertRecordExists checks that table:id exists
func AssertRecordExists(t *testing.T, db database.Database, table, id string) {
	t.Helper()
	if !recordExists(t, db, table, id) {
		t.Errorf("expected record %s:%s to exist, but it doesn't", table, recordKey(id))
	}
}

// AssertRecordNotExists checks that table:id does not exist
func AssertRecordNotExists(t *testing.T, db database.Database, table, id string) {
	t.Helper()
	if recordExists(t, db, table, id) {
		t.Errorf("expected record %s:%s to not exist, but it does", table, recordKey(id))
	}
}

func recordExists(t *testing.T, db database.Database, table, id string) bool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results, err := db.Query(ctx, "SELECT * FROM type::thing($table, $id)", map[string]interface{}{
		"table": table,
		"id":    recordKey(id),
	})
	if err != nil {
		t.Fatalf("failed to query for record: %v", err)
	}
	return hasResults(results)
}

// recordKey strips a "table:" prefix from a full record id
func recordKey(id string) string {
	if _, key, ok := strings.Cut(id, ":"); ok {
		return key
	}
	return id
}

// hasResults checks if the first statement returned any rows
func hasResults(results []interface{}) bool {
	if len(results) == 0 {
		return false
	}

	resp, ok := results[0].(map[string]interface{})
	if !ok {
		return false
	}

	switch v := resp["result"].(type) {
	case []interface{}:
		return len(v) > 0
	case nil:
		return false
	default:
		return true
	}
}

// ============================================================================
// Utility Helpers
// ============================================================================

// StringPtr returns a pointer to the string
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to the int
func IntPtr(i int) *int {
	return &i
}

// BoolPtr returns a pointer to the bool
func BoolPtr(b bool) *bool {
	return &b
}
