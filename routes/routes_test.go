package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"stratusdrive/services"
	"stratusdrive/store"
	"stratusdrive/utils"
)

const testSecret = "test-secret"

type apiEnv struct {
	router *gin.Engine
	token  string
	owner  primitive.ObjectID
}

func newAPIEnv(t *testing.T, limitBytes int64) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	memory := store.NewMemoryStore()
	container, err := NewServiceContainer(memory, memory, services.NewMemoryContentStore(), ContainerOptions{
		DefaultStorageLimit: limitBytes,
		MaxFileSize:         1 << 20,
		TrashRetention:      720 * time.Hour,
	})
	require.NoError(t, err)

	router := gin.New()
	api := router.Group("/api")
	SetupRoutes(api, testSecret, container)

	owner := primitive.NewObjectID()
	token, err := utils.GenerateJWTToken(owner, "user@example.com", testSecret, "stratusdrive", time.Hour)
	require.NoError(t, err)

	return &apiEnv{router: router, token: token, owner: owner}
}

func (e *apiEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) doJSON(t *testing.T, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(t, method, path, bytes.NewReader(data), "application/json")
}

func (e *apiEnv) uploadFile(t *testing.T, name string, content []byte, parentID string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if parentID != "" {
		require.NoError(t, writer.WriteField("parent_id", parentID))
	}
	part, err := writer.CreateFormFile("files", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return e.do(t, http.MethodPost, "/api/files/upload", &buf, writer.FormDataContentType())
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]interface{})
	return data
}

func TestAuthRequired(t *testing.T) {
	env := newAPIEnv(t, 1<<30)

	req := httptest.NewRequest(http.MethodGet, "/api/files/list", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFolderLifecycle(t *testing.T) {
	env := newAPIEnv(t, 1<<30)

	w := env.doJSON(t, http.MethodPost, "/api/files/folders", gin.H{"name": "Documents"})
	require.Equal(t, http.StatusCreated, w.Code)
	folderID := decodeData(t, w)["id"].(string)

	w = env.doJSON(t, http.MethodPost, "/api/files/folders", gin.H{"name": "Documents"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.doJSON(t, http.MethodPost, "/api/files/folders", gin.H{"name": "Inner", "parent_id": folderID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/files/list?parent_id="+folderID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUploadListDownload(t *testing.T) {
	env := newAPIEnv(t, 1<<30)

	w := env.uploadFile(t, "hello.txt", []byte("hello world"), "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/files/list", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "hello.txt", item["name"])
	assert.Equal(t, float64(11), item["size"])

	storageInfo := data["storage_info"].(map[string]interface{})
	assert.Equal(t, float64(11), storageInfo["used_bytes"])

	w = env.do(t, http.MethodGet, item["download_url"].(string), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello world", w.Body.String())

	// Duplicate name in the same folder is rejected.
	w = env.uploadFile(t, "hello.txt", []byte("again"), "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestQuotaExceededStatus(t *testing.T) {
	env := newAPIEnv(t, 10)

	w := env.uploadFile(t, "big.bin", bytes.Repeat([]byte("x"), 50), "")
	assert.Equal(t, http.StatusInsufficientStorage, w.Code)
}

func TestTrashFlow(t *testing.T) {
	env := newAPIEnv(t, 1<<30)

	w := env.uploadFile(t, "doc.txt", []byte("data"), "")
	require.Equal(t, http.StatusCreated, w.Code)
	uploaded := decodeData(t, w)["uploaded"].([]interface{})
	fileID := uploaded[0].(map[string]interface{})["id"].(string)

	w = env.do(t, http.MethodDelete, "/api/files/"+fileID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/trash", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.([]interface{}), 1)

	// The trash view of the listing endpoint carries the summary too.
	w = env.do(t, http.MethodGet, "/api/files/list?trashed=true", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	trashData := decodeData(t, w)
	require.Len(t, trashData["items"].([]interface{}), 1)
	require.Contains(t, trashData, "storage_info")

	w = env.do(t, http.MethodPost, "/api/files/"+fileID+"/restore", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	// Restoring an active item is invalid.
	w = env.do(t, http.MethodPost, "/api/files/"+fileID+"/restore", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodDelete, "/api/files/"+fileID+"?permanent=true", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/files/"+fileID+"/download", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMoveRenameStatuses(t *testing.T) {
	env := newAPIEnv(t, 1<<30)

	w := env.doJSON(t, http.MethodPost, "/api/files/folders", gin.H{"name": "A"})
	require.Equal(t, http.StatusCreated, w.Code)
	aID := decodeData(t, w)["id"].(string)

	w = env.doJSON(t, http.MethodPost, "/api/files/folders", gin.H{"name": "B", "parent_id": aID})
	require.Equal(t, http.StatusCreated, w.Code)
	bID := decodeData(t, w)["id"].(string)

	// A into its own child: cycle.
	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/files/%s/move", aID), gin.H{"parent_id": bID})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/files/%s/rename", bID), gin.H{"name": "B2"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doJSON(t, http.MethodPut, "/api/files/"+primitive.NewObjectID().Hex()+"/rename", gin.H{"name": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchAndRecentEndpoints(t *testing.T) {
	env := newAPIEnv(t, 1<<30)

	require.Equal(t, http.StatusCreated, env.uploadFile(t, "report.pdf", []byte("1"), "").Code)
	require.Equal(t, http.StatusCreated, env.uploadFile(t, "notes.txt", []byte("22"), "").Code)

	w := env.do(t, http.MethodGet, "/api/files/search?q=rep", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.([]interface{}), 1)

	w = env.do(t, http.MethodGet, "/api/files/recent?limit=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.([]interface{}), 1)
}

func TestStorageSummaryEndpoint(t *testing.T) {
	env := newAPIEnv(t, 1000)

	require.Equal(t, http.StatusCreated, env.uploadFile(t, "a.bin", bytes.Repeat([]byte("x"), 250), "").Code)

	w := env.do(t, http.MethodGet, "/api/storage/summary", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(250), data["used_bytes"])
	assert.Equal(t, float64(1000), data["limit_bytes"])
}
