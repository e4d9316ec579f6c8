package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph/mtx"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/domain"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/repository"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/service"
)

const cycleMTX = `%%MatrixMarket matrix coordinate pattern symmetric
4 4 4
1 2
2 3
3 4
4 1
`

// fakeRepo keeps networks in memory behind the service's store interface.
type fakeRepo struct {
	byID   map[string]*domain.Network
	byHash map[string]*domain.Network
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:   make(map[string]*domain.Network),
		byHash: make(map[string]*domain.Network),
	}
}

func (r *fakeRepo) Create(_ context.Context, n *domain.Network) error {
	if _, ok := r.byHash[n.ContentHash]; ok {
		return domain.ErrNetworkExists
	}
	cp := *n
	r.byID[cp.ID] = &cp
	r.byHash[cp.ContentHash] = &cp
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id string) (*domain.Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNetworkNotFound
	}
	return n, nil
}

func (r *fakeRepo) FindByHash(_ context.Context, hash string) (*domain.Network, error) {
	n, ok := r.byHash[hash]
	if !ok {
		return nil, domain.ErrNetworkNotFound
	}
	return n, nil
}

func (r *fakeRepo) List(_ context.Context) ([]domain.Network, error) {
	out := make([]domain.Network, 0, len(r.byID))
	for _, n := range r.byID {
		out = append(out, *n)
	}
	return out, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) (bool, error) {
	n, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	delete(r.byID, id)
	delete(r.byHash, n.ContentHash)
	return true, nil
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := service.NewService(newFakeRepo(), repository.NewCache(client, time.Hour), zap.NewNop())

	r := gin.New()
	Register(r.Group("/api/v1/networks"), svc)
	return r
}

func doUpload(t *testing.T, r *gin.Engine, fields map[string]string, filename, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, body)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/networks", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func do(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type uploadResponse struct {
	OK        bool            `json:"ok"`
	Duplicate bool            `json:"duplicate"`
	Network   *domain.Network `json:"network"`
	Report    *mtx.Report     `json:"report"`
	Error     string          `json:"error"`
}

func decodeUpload(t *testing.T, w *httptest.ResponseRecorder) uploadResponse {
	t.Helper()
	var res uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestUploadNetwork(t *testing.T) {
	t.Run("creates a network from a multipart file", func(t *testing.T) {
		r := setupRouter(t)

		w := doUpload(t, r, nil, "ring.mtx", cycleMTX)
		require.Equal(t, http.StatusCreated, w.Code)

		res := decodeUpload(t, w)
		assert.True(t, res.OK)
		assert.False(t, res.Duplicate)
		require.NotNil(t, res.Network)
		// name falls back to the file's base name
		assert.Equal(t, "ring", res.Network.Name)
		assert.Equal(t, 4, res.Network.NodeCount)
		assert.Equal(t, 4, res.Network.EdgeCount)
		require.NotNil(t, res.Report)
		assert.Equal(t, 4, res.Report.Entries)
	})

	t.Run("honors name and directed form fields", func(t *testing.T) {
		r := setupRouter(t)

		w := doUpload(t, r, map[string]string{"name": "loop", "directed": "true"}, "ring.mtx", cycleMTX)
		require.Equal(t, http.StatusCreated, w.Code)

		res := decodeUpload(t, w)
		assert.Equal(t, "loop", res.Network.Name)
		assert.True(t, res.Network.Directed)
		// symmetric storage mirrors every entry when read as directed
		assert.Equal(t, 8, res.Network.EdgeCount)
	})

	t.Run("flags a re-upload as duplicate", func(t *testing.T) {
		r := setupRouter(t)

		first := decodeUpload(t, doUpload(t, r, nil, "ring.mtx", cycleMTX))

		w := doUpload(t, r, nil, "copy.mtx", cycleMTX)
		require.Equal(t, http.StatusOK, w.Code)

		res := decodeUpload(t, w)
		assert.True(t, res.Duplicate)
		assert.Equal(t, first.Network.ID, res.Network.ID)
	})

	t.Run("rejects a missing file part", func(t *testing.T) {
		r := setupRouter(t)

		w := doUpload(t, r, nil, "", "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "file is required", decodeUpload(t, w).Error)
	})

	t.Run("rejects a bad directed flag", func(t *testing.T) {
		r := setupRouter(t)

		w := doUpload(t, r, map[string]string{"directed": "sideways"}, "ring.mtx", cycleMTX)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a malformed matrix", func(t *testing.T) {
		r := setupRouter(t)

		w := doUpload(t, r, nil, "bad.mtx", "this is not MatrixMarket\n")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeUpload(t, w).Error, "header")
	})

	t.Run("rejects an empty file", func(t *testing.T) {
		r := setupRouter(t)

		w := doUpload(t, r, nil, "empty.mtx", "   \n")
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetAndListNetworks(t *testing.T) {
	r := setupRouter(t)
	created := decodeUpload(t, doUpload(t, r, nil, "ring.mtx", cycleMTX))

	t.Run("gets a stored network", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/networks/"+created.Network.ID)
		require.Equal(t, http.StatusOK, w.Code)

		res := decodeUpload(t, w)
		assert.Equal(t, created.Network.ID, res.Network.ID)
	})

	t.Run("missing network is a 404", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/networks/nope")
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("lists stored networks", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/networks")
		require.Equal(t, http.StatusOK, w.Code)

		var res struct {
			OK       bool             `json:"ok"`
			Networks []domain.Network `json:"networks"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Len(t, res.Networks, 1)
		assert.Equal(t, created.Network.ID, res.Networks[0].ID)
	})
}

func TestDeleteNetwork(t *testing.T) {
	r := setupRouter(t)
	created := decodeUpload(t, doUpload(t, r, nil, "ring.mtx", cycleMTX))

	w := do(r, http.MethodDelete, "/api/v1/networks/"+created.Network.ID)
	require.Equal(t, http.StatusOK, w.Code)

	// the row and its cache entries are gone
	w = do(r, http.MethodGet, "/api/v1/networks/"+created.Network.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodDelete, "/api/v1/networks/"+created.Network.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNetworkOverview(t *testing.T) {
	r := setupRouter(t)
	created := decodeUpload(t, doUpload(t, r, nil, "ring.mtx", cycleMTX))

	w := do(r, http.MethodGet, "/api/v1/networks/"+created.Network.ID+"/overview")
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		OK       bool            `json:"ok"`
		Overview domain.Overview `json:"overview"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 4, res.Overview.Nodes)
	assert.Equal(t, 4, res.Overview.Edges)
	assert.True(t, res.Overview.Connected)

	w = do(r, http.MethodGet, "/api/v1/networks/nope/overview")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNetworkDOT(t *testing.T) {
	r := setupRouter(t)
	created := decodeUpload(t, doUpload(t, r, nil, "ring.mtx", cycleMTX))

	w := do(r, http.MethodGet, "/api/v1/networks/"+created.Network.ID+"/dot")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/vnd.graphviz; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "graph G {")
	assert.Contains(t, body, `label="ring"`)
	assert.Contains(t, body, "0 -- 1")

	w = do(r, http.MethodGet, "/api/v1/networks/nope/dot")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
