package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/marketplace/internal/listing/access"
	"github.com/tair/marketplace/internal/listing/domain"
	"github.com/tair/marketplace/internal/listing/repository"
	"github.com/tair/marketplace/pkg/auth"
)

type testEnv struct {
	router     *mux.Router
	listings   *repository.MemoryListingRepository
	activities *repository.MemoryActivityRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	listings := repository.NewMemoryListingRepository()
	activities := repository.NewMemoryActivityRepository()
	handler := NewListingHandler(listings, activities, access.NewResolver(nil))

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return &testEnv{router: router, listings: listings, activities: activities}
}

func bearerToken(t *testing.T, userID, email string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, email, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeListing(t *testing.T, rec *httptest.ResponseRecorder) domain.Listing {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success, "body: %s", rec.Body.String())

	var listing domain.Listing
	require.NoError(t, json.Unmarshal(resp.Data, &listing))
	return listing
}

func listingBody(visibility string) map[string]interface{} {
	return map[string]interface{}{
		"title":       "Vintage Lamp",
		"description": "A mid-century desk lamp",
		"price":       2000,
		"category":    "home",
		"condition":   "good",
		"visibility":  visibility,
	}
}

func TestCreateRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/listings", "", listingBody("public"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndFetchPublicListing(t *testing.T) {
	env := newTestEnv(t)
	owner := bearerToken(t, "owner-1", "owner@example.com")

	rec := env.do(t, http.MethodPost, "/api/listings", owner, listingBody("public"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeListing(t, rec)
	assert.Equal(t, "owner-1", created.OwnerID)
	assert.Equal(t, domain.StatusActive, created.Status)

	// Anonymous fetch succeeds and counts a view.
	rec = env.do(t, http.MethodGet, "/api/listings/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decodeListing(t, rec)
	assert.Equal(t, int64(1), fetched.Views)

	// The owner's own fetch does not.
	rec = env.do(t, http.MethodGet, "/api/listings/"+created.ID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched = decodeListing(t, rec)
	assert.Equal(t, int64(1), fetched.Views)
}

func TestPrivateListingIndistinguishableFromMissing(t *testing.T) {
	env := newTestEnv(t)
	owner := bearerToken(t, "owner-1", "owner@example.com")
	invited := bearerToken(t, "bob", "bob@example.com")
	stranger := bearerToken(t, "eve", "eve@example.com")

	body := listingBody("private")
	body["invitedEmails"] = []string{"bob@example.com"}
	rec := env.do(t, http.MethodPost, "/api/listings", owner, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeListing(t, rec)

	denied := env.do(t, http.MethodGet, "/api/listings/"+created.ID, stranger, nil)
	missing := env.do(t, http.MethodGet, "/api/listings/missing-id", stranger, nil)
	assert.Equal(t, http.StatusNotFound, denied.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	// Identical responses: a denial must not leak that the listing exists.
	assert.JSONEq(t, missing.Body.String(), denied.Body.String())

	rec = env.do(t, http.MethodGet, "/api/listings/"+created.ID, invited, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/listings/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBrowseOmitsDeniedListings(t *testing.T) {
	env := newTestEnv(t)
	owner := bearerToken(t, "owner-1", "owner@example.com")

	env.do(t, http.MethodPost, "/api/listings", owner, listingBody("public"))
	env.do(t, http.MethodPost, "/api/listings", owner, listingBody("private"))

	rec := env.do(t, http.MethodGet, "/api/listings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.Listing `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, domain.VisibilityPublic, resp.Data[0].Visibility)

	// The owner sees both.
	rec = env.do(t, http.MethodGet, "/api/listings", owner, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestUpdateByNonOwnerLooksLikeMissing(t *testing.T) {
	env := newTestEnv(t)
	owner := bearerToken(t, "owner-1", "owner@example.com")
	stranger := bearerToken(t, "eve", "eve@example.com")

	rec := env.do(t, http.MethodPost, "/api/listings", owner, listingBody("public"))
	created := decodeListing(t, rec)

	rec = env.do(t, http.MethodPut, "/api/listings/"+created.ID, stranger, map[string]interface{}{"title": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/listings/"+created.ID, stranger, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/listings/"+created.ID, owner, map[string]interface{}{"title": "Renamed Lamp"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed Lamp", decodeListing(t, rec).Title)
}

func TestShareLinkFlow(t *testing.T) {
	env := newTestEnv(t)
	owner := bearerToken(t, "owner-1", "owner@example.com")

	rec := env.do(t, http.MethodPost, "/api/listings", owner, listingBody("shared"))
	created := decodeListing(t, rec)

	// Before issuance the listing is unreachable for outsiders.
	rec = env.do(t, http.MethodGet, "/api/listings/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/listings/"+created.ID+"/share", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var shareResp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shareResp))
	token := shareResp.Data["shareLink"]
	require.NotEmpty(t, token)

	// Repeat issuance returns the same token.
	rec = env.do(t, http.MethodPost, "/api/listings/"+created.ID+"/share", owner, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shareResp))
	assert.Equal(t, token, shareResp.Data["shareLink"])

	rec = env.do(t, http.MethodGet, "/api/share/"+token, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/share/"+token[:6], "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The token also unlocks the direct route via query parameter.
	rec = env.do(t, http.MethodGet, "/api/listings/"+created.ID+"?token="+token, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMarkSoldFlow(t *testing.T) {
	env := newTestEnv(t)
	owner := bearerToken(t, "owner-1", "owner@example.com")

	rec := env.do(t, http.MethodPost, "/api/listings", owner, listingBody("public"))
	created := decodeListing(t, rec)

	rec = env.do(t, http.MethodPost, "/api/listings/"+created.ID+"/sold", owner, map[string]interface{}{"salePrice": 2000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.StatusSold, decodeListing(t, rec).Status)

	// Selling again conflicts.
	rec = env.do(t, http.MethodPost, "/api/listings/"+created.ID+"/sold", owner, map[string]interface{}{"salePrice": 2000})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Dashboard reflects the sale.
	rec = env.do(t, http.MethodGet, "/api/stats", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var statsResp struct {
		Data struct {
			TotalEarnings int64 `json:"totalEarnings"`
			ItemsSold     int64 `json:"itemsSold"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statsResp))
	assert.Equal(t, int64(1), statsResp.Data.ItemsSold)
	assert.Equal(t, int64(2000), statsResp.Data.TotalEarnings)
}

func TestValidationErrorsMapToBadRequest(t *testing.T) {
	env := newTestEnv(t)
	owner := bearerToken(t, "owner-1", "owner@example.com")

	body := listingBody("public")
	body["title"] = ""
	rec := env.do(t, http.MethodPost, "/api/listings", owner, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = listingBody("everyone")
	rec = env.do(t, http.MethodPost, "/api/listings", owner, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivitiesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	owner := bearerToken(t, "owner-1", "owner@example.com")

	rec := env.do(t, http.MethodPost, "/api/listings", owner, listingBody("public"))
	created := decodeListing(t, rec)
	env.do(t, http.MethodPost, "/api/listings/"+created.ID+"/sold", owner, map[string]interface{}{"salePrice": 2000})

	rec = env.do(t, http.MethodGet, "/api/activities?limit=5", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.Activity `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, domain.ActivitySale, resp.Data[0].Type)
	assert.Equal(t, domain.ActivityListingAdded, resp.Data[1].Type)
}
