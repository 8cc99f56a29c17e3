package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"redeemly/internal/coupon"
	"redeemly/internal/handler"
	"redeemly/internal/middleware"
	"redeemly/internal/model"
	"redeemly/internal/notification"
	"redeemly/internal/repository"
	"redeemly/internal/router"
	"redeemly/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "integration-secret"

type testServer struct {
	handler    http.Handler
	dispatcher notification.Dispatcher
}

func setupTestServer(t *testing.T, testDB *TestDB, maxAttempts int) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	repos := repository.NewPostgresRepositories(testDB.Pool, logger)
	dispatcher := notification.NewDispatcher(repos.Stores, repos.Notifications, notification.NewLogPublisher(logger), 5*time.Second, logger)
	t.Cleanup(dispatcher.Wait)

	h := router.New(router.Handlers{
		Redemptions: handler.NewRedemptionHandler(
			service.NewRedemptionService(repos, coupon.NewValidator(), dispatcher, maxAttempts, logger), time.Now, logger),
		Coupons:       handler.NewCouponHandler(service.NewCouponService(repos, logger), time.Now, logger),
		Stores:        handler.NewStoreHandler(service.NewStoreService(repos.Stores, logger), logger),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(dispatcher, repos.Notifications, logger), logger),
	}, router.Options{JWTSecret: testSecret}, logger)

	return &testServer{handler: h, dispatcher: dispatcher}
}

func (s *testServer) do(t *testing.T, method, path, subject string, role model.Role, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	token, err := middleware.IssueToken(testSecret, subject, role, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

// redeemConcurrently sends n redemptions of couponID from distinct customers
// at once. Requests are built up front so goroutines only serve them.
func redeemConcurrently(t *testing.T, s *testServer, couponID string, n int) []*httptest.ResponseRecorder {
	t.Helper()

	requests := make([]*http.Request, n)
	for i := range requests {
		token, err := middleware.IssueToken(testSecret, fmt.Sprintf("racer-%d", i), model.RoleCustomer, time.Hour)
		require.NoError(t, err)

		body, err := json.Marshal(map[string]string{"couponId": couponID})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/redemptions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		requests[i] = req
	}

	responses := make([]*httptest.ResponseRecorder, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range requests {
		responses[i] = httptest.NewRecorder()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			s.handler.ServeHTTP(responses[i], requests[i])
		}(i)
	}
	close(start)
	wg.Wait()

	return responses
}

// tally counts successful redemptions and the error codes of the 409s.
func tally(t *testing.T, responses []*httptest.ResponseRecorder) (int, map[string]int) {
	t.Helper()

	created := 0
	codes := make(map[string]int)
	for _, w := range responses {
		switch w.Code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			var resp model.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			codes[resp.Error]++
		default:
			t.Errorf("unexpected status %d: %s", w.Code, w.Body.String())
		}
	}
	return created, codes
}

// assertLedgerMatches checks that usage count, ledger length and the dense
// sequence 1..want all agree.
func assertLedgerMatches(t *testing.T, s *testServer, couponID string, want int) {
	t.Helper()

	w := s.do(t, http.MethodGet, "/api/coupons/"+couponID+"/redemptions", "m1", model.RoleMerchant, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ledger []model.Redemption
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ledger))
	require.Len(t, ledger, want)

	sequences := make([]int, 0, len(ledger))
	for _, rd := range ledger {
		sequences = append(sequences, rd.Sequence)
	}
	sort.Ints(sequences)
	for i, seq := range sequences {
		assert.Equal(t, i+1, seq)
	}

	w = s.do(t, http.MethodGet, "/api/coupons/"+couponID, "m1", model.RoleMerchant, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var c model.Coupon
	require.NoError(t, json.NewDecoder(w.Body).Decode(&c))
	assert.Equal(t, want, c.UsageCount)
}

func couponBody(id, storeID string, usageLimit int) map[string]interface{} {
	now := time.Now().UTC()
	body := map[string]interface{}{
		"id":           id,
		"storeId":      storeID,
		"title":        "20% off",
		"discountType": "percentage",
		"value":        20,
		"validFrom":    now.Add(-time.Hour).Format(time.RFC3339),
		"validTo":      now.Add(time.Hour).Format(time.RFC3339),
	}
	if usageLimit > 0 {
		body["usageLimit"] = usageLimit
	}
	return body
}

func TestRedemptionAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB, service.DefaultMaxAttempts)

	t.Run("redeem records ledger entry and notifies merchant", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedStores(t, testDB.Pool)

		w := server.do(t, http.MethodPost, "/api/coupons", "m1", model.RoleMerchant, couponBody("C1", "S001", 10))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = server.do(t, http.MethodPost, "/api/redemptions", "alice", model.RoleCustomer,
			map[string]interface{}{"couponId": "C1", "referencePrice": 50})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var rd model.Redemption
		require.NoError(t, json.NewDecoder(w.Body).Decode(&rd))
		assert.Equal(t, 1, rd.Sequence)
		assert.Equal(t, 10.0, rd.Savings)
		assert.Equal(t, "S001", rd.StoreID)

		w = server.do(t, http.MethodPost, "/api/redemptions", "alice", model.RoleCustomer,
			map[string]interface{}{"couponId": "C1"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), model.ErrCodeAlreadyRedeemed)

		server.dispatcher.Wait()

		w = server.do(t, http.MethodGet, "/api/notifications", "admin", model.RoleAdmin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var recent []model.Notification
		require.NoError(t, json.NewDecoder(w.Body).Decode(&recent))
		require.Len(t, recent, 1)
		assert.Equal(t, "merchant_m1", recent[0].Topic)
		assert.Equal(t, "C1", recent[0].Data["couponId"])
	})

	t.Run("last use goes to exactly one of ten racers", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedStores(t, testDB.Pool)

		w := server.do(t, http.MethodPost, "/api/coupons", "m1", model.RoleMerchant, couponBody("C-LAST", "S001", 1))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		responses := redeemConcurrently(t, server, "C-LAST", 10)

		created, codes := tally(t, responses)
		assert.Equal(t, 1, created)
		assert.Equal(t, map[string]int{model.ErrCodeLimitReached: 9}, codes)
		assertLedgerMatches(t, server, "C-LAST", created)
	})

	t.Run("default retry bound never oversells", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedStores(t, testDB.Pool)

		const limit = 5

		w := server.do(t, http.MethodPost, "/api/coupons", "m1", model.RoleMerchant, couponBody("C-BUSY", "S001", limit))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		responses := redeemConcurrently(t, server, "C-BUSY", 20)

		// Racers that lose every attempt get a retryable CONFLICT even while
		// slots remain, so only the upper bound is fixed.
		created, codes := tally(t, responses)
		assert.GreaterOrEqual(t, created, 1)
		assert.LessOrEqual(t, created, limit)
		for code := range codes {
			assert.Contains(t, []string{model.ErrCodeConflict, model.ErrCodeLimitReached}, code)
		}
		assertLedgerMatches(t, server, "C-BUSY", created)
	})

	t.Run("retry bound covering every racer fills the limit exactly", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedStores(t, testDB.Pool)

		const limit = 5
		const racers = 20
		patient := setupTestServer(t, testDB, racers)

		w := patient.do(t, http.MethodPost, "/api/coupons", "m1", model.RoleMerchant, couponBody("C-RACE", "S001", limit))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		responses := redeemConcurrently(t, patient, "C-RACE", racers)

		created, codes := tally(t, responses)
		assert.Equal(t, limit, created)
		assert.Equal(t, map[string]int{model.ErrCodeLimitReached: racers - limit}, codes)
		assertLedgerMatches(t, patient, "C-RACE", limit)
	})

	t.Run("deactivated coupon is rejected", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedStores(t, testDB.Pool)

		w := server.do(t, http.MethodPost, "/api/coupons", "m1", model.RoleMerchant, couponBody("C-OFF", "S001", 0))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = server.do(t, http.MethodDelete, "/api/coupons/C-OFF", "m2", model.RoleMerchant, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = server.do(t, http.MethodDelete, "/api/coupons/C-OFF", "m1", model.RoleMerchant, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = server.do(t, http.MethodPost, "/api/redemptions", "bob", model.RoleCustomer,
			map[string]string{"couponId": "C-OFF"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), model.ErrCodeInactive)
	})

	t.Run("scan redeems the coupon named by the QR payload", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedStores(t, testDB.Pool)

		w := server.do(t, http.MethodPost, "/api/coupons", "m2", model.RoleMerchant, couponBody("C-QR", "S002", 0))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var c model.Coupon
		require.NoError(t, json.NewDecoder(w.Body).Decode(&c))
		require.NotEmpty(t, c.QRPayload)

		w = server.do(t, http.MethodPost, "/api/redemptions/scan", "carol", model.RoleCustomer,
			map[string]interface{}{"payload": c.QRPayload, "referencePrice": 10})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = server.do(t, http.MethodGet, "/api/stores/S002/summary", "m2", model.RoleMerchant, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var summary model.RedemptionSummary
		require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
		assert.Equal(t, 1, summary.Redemptions)
		assert.Equal(t, 2.0, summary.TotalSavings)
		assert.Equal(t, 1, summary.Redeemers)
	})

	t.Run("unknown coupon returns not found", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		w := server.do(t, http.MethodPost, "/api/redemptions", "dave", model.RoleCustomer,
			map[string]string{"couponId": "missing"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
