package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/store-inventory/internal/auth"
	"github.com/iliyamo/store-inventory/internal/config"
	"github.com/iliyamo/store-inventory/internal/handler"
	"github.com/iliyamo/store-inventory/internal/metrics"
	"github.com/iliyamo/store-inventory/internal/middleware"
	"github.com/iliyamo/store-inventory/internal/queue"
	"github.com/iliyamo/store-inventory/internal/repository"
	"github.com/iliyamo/store-inventory/internal/repository/inmem"
	"github.com/iliyamo/store-inventory/internal/service"
)

type testAPI struct {
	e       *echo.Echo
	revoked func() int
}

// newTestAPI wires the API with in-memory stores and no Redis middleware.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	revs := inmem.NewRevocations(time.Hour)
	return buildTestAPI(t, revs, revs.Len, func(mw *Middleware) {})
}

// newRedisTestAPI uses the production middleware chain on miniredis: the
// Redis revocation registry, both rate limiters and the response cache.
func newRedisTestAPI(t *testing.T) *testAPI {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	revs := repository.NewRevocationRepo(rdb, "blacklist", time.Hour)
	revoked := func() int {
		n := 0
		for _, k := range mr.Keys() {
			if strings.HasPrefix(k, "blacklist:") {
				n++
			}
		}
		return n
	}
	limit := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1000,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            time.Minute,
		KeyStrategy:    "ip_manager_route",
		Prefix:         "rl",
	}
	authLimit := limit
	authLimit.KeyStrategy, authLimit.Prefix = "ip_route", "rl:auth"

	return buildTestAPI(t, revs, revoked, func(mw *Middleware) {
		mw.RateLimit = middleware.NewTokenBucket(limit, rdb)
		mw.AuthRateLimit = middleware.NewTokenBucket(authLimit, rdb)
		mw.Cache = middleware.NewRedisCache(config.CacheConfig{
			Enabled:      true,
			Methods:      map[string]bool{http.MethodGet: true},
			TTL:          time.Minute,
			KeyStrategy:  "route_query",
			Prefix:       "cache",
			MaxBodyBytes: 1 << 20,
		}, rdb)
	})
}

func buildTestAPI(t *testing.T, revs auth.RevocationRegistry, revoked func() int, extra func(*Middleware)) *testAPI {
	t.Helper()
	tokens, err := auth.NewTokenManager("router-test-secret", "HS256", time.Hour)
	require.NoError(t, err)

	db := inmem.New()
	log := zap.NewNop()
	reg := prometheus.NewRegistry()
	mx := metrics.New(reg, "test")
	pub := queue.NopPublisher{}

	managers := service.NewManagerService(db.Managers(), tokens, revs, pub, bcrypt.MinCost, log)
	stores := service.NewStoreService(db.Stores(), pub, log)
	inventories := service.NewInventoryService(db.Inventories(), log)
	items := service.NewItemService(db.Items(), db.Inventories(), pub, log)

	mw := Middleware{Auth: middleware.Authenticate(tokens, revs, db.Managers(), mx)}
	extra(&mw)

	e := echo.New()
	RegisterRoutes(e, handler.NewReadinessHandler(map[string]handler.Check{
		"db": func(context.Context) error { return nil },
	}), metrics.Handler(reg))
	RegisterAPI(e, Handlers{
		Managers:    handler.NewManagerHandler(managers, mx),
		Stores:      handler.NewStoreHandler(stores),
		Inventories: handler.NewInventoryHandler(inventories),
		Items:       handler.NewItemHandler(items),
	}, mw)
	return &testAPI{e: e, revoked: revoked}
}

// forEachAPI runs fn against both wirings.
func forEachAPI(t *testing.T, fn func(t *testing.T, a *testAPI)) {
	t.Run("inmem", func(t *testing.T) { fn(t, newTestAPI(t)) })
	t.Run("redis", func(t *testing.T) { fn(t, newRedisTestAPI(t)) })
}

func (a *testAPI) call(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// signup registers a manager and returns an access token.
func (a *testAPI) signup(t *testing.T, email string) string {
	t.Helper()
	rec := a.call(http.MethodPost, "/v1/managers", "", echo.Map{"name": "M " + email, "email": email, "password": "password123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.call(http.MethodPost, "/v1/managers/token", "", echo.Map{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["access_token"].(string)
}

// withStore creates a store assigned to the token's manager.
func (a *testAPI) withStore(t *testing.T, token string) string {
	t.Helper()
	rec := a.call(http.MethodPost, "/v1/stores?assign_to_self=true", token, echo.Map{"name": "Corner", "location": "Main St"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["id"].(string)
}

func (a *testAPI) createItem(t *testing.T, token string, body echo.Map) string {
	t.Helper()
	rec := a.call(http.MethodPost, "/v1/items", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["id"].(string)
}

func TestProbesAndMetrics(t *testing.T) {
	a := newTestAPI(t)

	rec := a.call(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	assert.Equal(t, http.StatusOK, a.call(http.MethodGet, "/readyz", "", nil).Code)

	rec = a.call(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "auth_logouts_total")
}

func TestRegisterAndToken(t *testing.T) {
	a := newTestAPI(t)

	rec := a.call(http.MethodPost, "/v1/managers", "", echo.Map{"name": "Ada", "email": "Ada@Example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ada@example.com", body["email"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = a.call(http.MethodPost, "/v1/managers", "", echo.Map{"name": "Ada", "email": "ada@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.call(http.MethodPost, "/v1/managers/token", "", echo.Map{"email": "ada@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	tok := decode(t, rec)
	assert.Equal(t, "bearer", tok["token_type"])
	assert.NotEmpty(t, tok["access_token"])
	assert.NotEmpty(t, tok["expires_at"])

	form := url.Values{"username": {"ada@example.com"}, "password": {"password123"}}
	req := httptest.NewRequest(http.MethodPost, "/v1/managers/token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	frec := httptest.NewRecorder()
	a.e.ServeHTTP(frec, req)
	assert.Equal(t, http.StatusOK, frec.Code, frec.Body.String())

	wrong := a.call(http.MethodPost, "/v1/managers/token", "", echo.Map{"email": "ada@example.com", "password": "nope-nope"})
	unknown := a.call(http.MethodPost, "/v1/managers/token", "", echo.Map{"email": "bob@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
	assert.JSONEq(t, `{"error":"invalid credentials"}`, wrong.Body.String())

	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/v1/managers/token", "", echo.Map{"email": "ada@example.com"}).Code)
}

func TestLogoutRevokesToken(t *testing.T) { forEachAPI(t, logoutRevokesToken) }

func logoutRevokesToken(t *testing.T, a *testAPI) {
	token := a.signup(t, "ada@example.com")

	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/v1/managers/me", token, nil).Code)

	rec := a.call(http.MethodPost, "/v1/managers/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, rec.Body.String())
	assert.Equal(t, 1, a.revoked())

	rec = a.call(http.MethodGet, "/v1/managers/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodPost, "/v1/managers/logout", token, nil).Code)

	// a fresh token works and GET logout revokes it too
	rec = a.call(http.MethodPost, "/v1/managers/token", "", echo.Map{"email": "ada@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := decode(t, rec)["access_token"].(string)
	assert.Equal(t, http.StatusOK, a.call(http.MethodGet, "/v1/managers/logout", fresh, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodGet, "/v1/managers/me", fresh, nil).Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newTestAPI(t)
	for _, path := range []string{"/v1/managers/me", "/v1/stores", "/v1/store-inventories", "/v1/items"} {
		rec := a.call(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String(), path)
	}
	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodGet, "/v1/items", "not-a-token", nil).Code)
}

func TestProfileUpdate(t *testing.T) { forEachAPI(t, profileUpdate) }

func profileUpdate(t *testing.T, a *testAPI) {
	token := a.signup(t, "ada@example.com")

	rec := a.call(http.MethodPatch, "/v1/managers/me", token, echo.Map{"name": "Ada L."})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Ada L.", decode(t, rec)["name"])

	rec = a.call(http.MethodPatch, "/v1/managers/me", token, echo.Map{"password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestItemOwnership(t *testing.T) { forEachAPI(t, itemOwnership) }

func itemOwnership(t *testing.T, a *testAPI) {
	alice := a.signup(t, "alice@example.com")
	bob := a.signup(t, "bob@example.com")

	aliceStore := a.withStore(t, alice)
	itemID := a.createItem(t, alice, echo.Map{"name": "Milk", "category": "Grocery", "price_usd": 1.5})

	rec := a.call(http.MethodPost, "/v1/items", bob, echo.Map{"name": "Bread", "category": "Grocery", "price_usd": 2})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"manager is not assigned to any store"}`, rec.Body.String())

	a.withStore(t, bob)
	rec = a.call(http.MethodGet, "/v1/items/"+itemID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"item does not belong to manager's store"}`, rec.Body.String())
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodPatch, "/v1/items/"+itemID, bob, echo.Map{"name": "Mine"}).Code)
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodDelete, "/v1/items/"+itemID, bob, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodGet, "/v1/stores/"+aliceStore, bob, nil).Code)

	rec = a.call(http.MethodPost, "/v1/items", bob, echo.Map{"name": "Bread", "category": "Grocery", "price_usd": 2, "store_id": aliceStore})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.call(http.MethodGet, "/v1/items", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Milk")

	assert.Equal(t, http.StatusOK, a.call(http.MethodGet, "/v1/items/"+itemID, alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodGet, "/v1/items/"+uuid.NewString(), alice, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodGet, "/v1/items/not-a-uuid", alice, nil).Code)
}

func TestStoreAssignment(t *testing.T) { forEachAPI(t, storeAssignment) }

func storeAssignment(t *testing.T, a *testAPI) {
	alice := a.signup(t, "alice@example.com")
	bob := a.signup(t, "bob@example.com")

	rec := a.call(http.MethodPost, "/v1/stores", alice, echo.Map{"name": "Corner", "location": "Main St"})
	require.Equal(t, http.StatusCreated, rec.Code)
	storeID := decode(t, rec)["id"].(string)

	rec = a.call(http.MethodPut, "/v1/managers/me/store", alice, echo.Map{"store_id": storeID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, storeID, decode(t, rec)["store_id"])

	assert.Equal(t, http.StatusConflict, a.call(http.MethodPut, "/v1/managers/me/store", bob, echo.Map{"store_id": storeID}).Code)
	assert.Equal(t, http.StatusConflict, a.call(http.MethodPut, "/v1/managers/me/store", alice, echo.Map{"store_id": storeID}).Code)
	assert.Equal(t, http.StatusConflict, a.call(http.MethodPost, "/v1/stores?assign_to_self=true", alice, echo.Map{"name": "Second", "location": "Elm St"}).Code)
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodPut, "/v1/managers/me/store", bob, echo.Map{"store_id": uuid.NewString()}).Code)
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPut, "/v1/managers/me/store", bob, echo.Map{"store_id": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/v1/stores?assign_to_self=maybe", bob, echo.Map{"name": "S", "location": "L"}).Code)

	rec = a.call(http.MethodGet, "/v1/stores", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), storeID)

	rec = a.call(http.MethodDelete, "/v1/managers/me/store", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["store_id"])
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodDelete, "/v1/managers/me/store", alice, nil).Code)

	assert.Equal(t, http.StatusOK, a.call(http.MethodPut, "/v1/managers/me/store", bob, echo.Map{"store_id": storeID}).Code)
}

func TestStoreDeleteRefusedWithItems(t *testing.T) { forEachAPI(t, storeDeleteRefusedWithItems) }

func storeDeleteRefusedWithItems(t *testing.T, a *testAPI) {
	alice := a.signup(t, "alice@example.com")
	storeID := a.withStore(t, alice)
	itemID := a.createItem(t, alice, echo.Map{"name": "Soap", "category": "Personal Care", "price_usd": 3})

	rec := a.call(http.MethodPatch, "/v1/stores/"+storeID, alice, echo.Map{"location": "Elm St"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Elm St", decode(t, rec)["location"])

	assert.Equal(t, http.StatusConflict, a.call(http.MethodDelete, "/v1/stores/"+storeID, alice, nil).Code)
	require.Equal(t, http.StatusNoContent, a.call(http.MethodDelete, "/v1/items/"+itemID, alice, nil).Code)
	require.Equal(t, http.StatusNoContent, a.call(http.MethodDelete, "/v1/stores/"+storeID, alice, nil).Code)

	rec = a.call(http.MethodGet, "/v1/managers/me", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["store_id"])
}

func TestInventoriesAndItemFilters(t *testing.T) { forEachAPI(t, inventoriesAndItemFilters) }

func inventoriesAndItemFilters(t *testing.T, a *testAPI) {
	alice := a.signup(t, "alice@example.com")
	a.withStore(t, alice)

	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/v1/store-inventories", alice, echo.Map{"name": "Dry", "region": "Nowhere"}).Code)
	rec := a.call(http.MethodPost, "/v1/store-inventories", alice, echo.Map{"name": "Dry goods", "region": "North"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	invID := decode(t, rec)["id"].(string)

	classified := a.createItem(t, alice, echo.Map{"name": "Rice", "category": "Grocery", "price_usd": 4, "store_inventory_id": invID})
	a.createItem(t, alice, echo.Map{"name": "Lamp", "category": "Electronics", "price_usd": 20, "in_stock": false})

	rec = a.call(http.MethodGet, "/v1/items?store_inventory_id="+invID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), classified)
	assert.NotContains(t, rec.Body.String(), "Lamp")

	rec = a.call(http.MethodGet, "/v1/items?in_stock=false", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Lamp")
	assert.NotContains(t, rec.Body.String(), "Rice")

	rec = a.call(http.MethodGet, "/v1/items?category=Grocery", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rice")

	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodGet, "/v1/items?in_stock=maybe", alice, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodGet, "/v1/items?category=Toys", alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodPost, "/v1/items", alice, echo.Map{"name": "Oats", "category": "Grocery", "price_usd": 1, "store_inventory_id": uuid.NewString()}).Code)

	assert.Equal(t, http.StatusConflict, a.call(http.MethodDelete, "/v1/store-inventories/"+invID, alice, nil).Code)

	rec = a.call(http.MethodPatch, "/v1/items/"+classified, alice, echo.Map{"store_inventory_id": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decode(t, rec)["store_inventory_id"])

	rec = a.call(http.MethodPatch, "/v1/store-inventories/"+invID, alice, echo.Map{"region": "South"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "South", decode(t, rec)["region"])

	assert.Equal(t, http.StatusNoContent, a.call(http.MethodDelete, "/v1/store-inventories/"+invID, alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodGet, "/v1/store-inventories/"+invID, alice, nil).Code)
}

func TestRepeatedGetLogoutAlwaysRevokes(t *testing.T) { forEachAPI(t, repeatedGetLogoutAlwaysRevokes) }

func repeatedGetLogoutAlwaysRevokes(t *testing.T, a *testAPI) {
	first := a.signup(t, "ada@example.com")
	rec := a.call(http.MethodGet, "/v1/managers/logout", first, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get(echo.HeaderCacheControl))

	rec = a.call(http.MethodPost, "/v1/managers/token", "", echo.Map{"email": "ada@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode(t, rec)["access_token"].(string)
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/v1/managers/me", second, nil).Code)

	rec = a.call(http.MethodGet, "/v1/managers/logout", second, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, a.revoked())

	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodGet, "/v1/managers/me", second, nil).Code)
}

func TestCachedReadsStayScopedToManager(t *testing.T) {
	a := newRedisTestAPI(t)
	alice := a.signup(t, "alice@example.com")
	bob := a.signup(t, "bob@example.com")
	a.withStore(t, alice)
	a.withStore(t, bob)
	a.createItem(t, alice, echo.Map{"name": "Milk", "category": "Grocery", "price_usd": 1.5})

	first := a.call(http.MethodGet, "/v1/items", alice, nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	again := a.call(http.MethodGet, "/v1/items", alice, nil)
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), again.Body.String())

	rec := a.call(http.MethodGet, "/v1/items", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.NotContains(t, rec.Body.String(), "Milk")

	a.createItem(t, alice, echo.Map{"name": "Bread", "category": "Grocery", "price_usd": 2})
	rec = a.call(http.MethodGet, "/v1/items", alice, nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), "Bread")

	// a revoked token never reaches a cached body
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, "/v1/managers/logout", alice, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodGet, "/v1/items", alice, nil).Code)
}
