// Package integration 端到端测试，需要先启动服务（docker compose up 或 go run ./cmd/api）
//
//	BOOKREVIEW_BASE_URL=http://localhost:8080 go test ./test/integration/...
//
// 服务不可达时全部跳过。
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	defaultBaseURL = "http://localhost:8080"
	timeout        = 10 * time.Second

	// 内置用户，见config/config.yaml
	testUsername = "testuser"
	testPassword = "testpassword"
)

var client = &http.Client{Timeout: timeout}

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type loginData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	User         struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

type bookItem struct {
	ID            uint     `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Genre         string   `json:"genre"`
	AverageRating *float64 `json:"average_rating"`
}

type reviewItem struct {
	ID         uint    `json:"id"`
	BookID     uint    `json:"book_id"`
	UserID     uint    `json:"user_id"`
	Rating     int     `json:"rating"`
	ReviewText *string `json:"review_text"`
}

type bookDetail struct {
	bookItem
	Reviews []reviewItem `json:"reviews"`
}

type taskData struct {
	TaskID   string `json:"task_id"`
	TaskName string `json:"task_name"`
	Status   string `json:"status"`
}

type taskRecord struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	State  string `json:"state"`
	Result *struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"result"`
}

func baseURL() string {
	if u := os.Getenv("BOOKREVIEW_BASE_URL"); u != "" {
		return u
	}
	return defaultBaseURL
}

// requireServer 服务不可达时跳过
func requireServer(t *testing.T) {
	t.Helper()
	resp, err := client.Get(baseURL() + "/ping")
	if err != nil {
		t.Skipf("服务不可达，跳过集成测试: %v", err)
	}
	resp.Body.Close()
}

// Do 发送请求，返回HTTP状态码与解析后的响应体（204时为nil）
func Do(t *testing.T, method, path string, body interface{}, token string) (int, *Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "JSON序列化失败")
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL()+path, reader)
	require.NoError(t, err, "创建HTTP请求失败")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")
	if len(raw) == 0 {
		return resp.StatusCode, nil
	}

	var result Response
	require.NoError(t, json.Unmarshal(raw, &result), "解析JSON响应失败: %s", string(raw))
	return resp.StatusCode, &result
}

// DecodeData 解析Response.Data
func DecodeData(t *testing.T, resp *Response, out interface{}) {
	t.Helper()
	require.NotNil(t, resp)
	require.NoError(t, json.Unmarshal(resp.Data, out), "解析data失败: %s", string(resp.Data))
}

// Login 内置用户登录
func Login(t *testing.T) loginData {
	t.Helper()
	status, resp := Do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": testUsername,
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, status, "登录失败: %+v", resp)

	var data loginData
	DecodeData(t, resp, &data)
	require.NotEmpty(t, data.AccessToken)
	return data
}

// FirstBook 取目录中的第一本书（启动时已导入种子数据）
func FirstBook(t *testing.T, token string) bookItem {
	t.Helper()
	status, resp := Do(t, http.MethodGet, "/api/v1/books?limit=1", nil, token)
	require.Equal(t, http.StatusOK, status)

	var list []bookItem
	DecodeData(t, resp, &list)
	if len(list) == 0 {
		t.Skip("目录为空，跳过")
	}
	return list[0]
}
