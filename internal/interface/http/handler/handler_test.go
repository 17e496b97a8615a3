package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appbook "github.com/xiebiao/bookreview/internal/application/book"
	appreview "github.com/xiebiao/bookreview/internal/application/review"
	appuser "github.com/xiebiao/bookreview/internal/application/user"
	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/job"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
	"github.com/xiebiao/bookreview/pkg/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	logrus.SetLevel(logrus.PanicLevel)
	if err := validator.Register(); err != nil {
		panic(err)
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// asUser 模拟认证中间件
func asUser(c *gin.Context) {
	c.Set("user_id", uint(7))
	c.Set("access_token", "tok-7")
	c.Next()
}

func do(t *testing.T, r *gin.Engine, method, target string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func doJSON(t *testing.T, r *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	return do(t, r, method, target, strings.NewReader(body), "application/json")
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestAuthHandler(t *testing.T) {
	setup := func() (*gin.Engine, *mockLogin, *mockLogout, *mockRefresh) {
		login, logout, refresh := new(mockLogin), new(mockLogout), new(mockRefresh)
		h := &AuthHandler{loginUseCase: login, logoutUseCase: logout, refreshUseCase: refresh}

		r := gin.New()
		r.POST("/login", h.Login)
		r.POST("/refresh", h.Refresh)
		r.POST("/logout", asUser, h.Logout)
		return r, login, logout, refresh
	}

	credentials := mock.MatchedBy(func(req appuser.LoginRequest) bool {
		return req.Username == "testuser" && req.Password == "testpassword"
	})
	tokens := &appuser.LoginResponse{
		User:         appuser.UserInfo{ID: 1, Username: "testuser"},
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "bearer",
		ExpiresIn:    1800,
	}

	t.Run("JSON登录", func(t *testing.T) {
		r, login, _, _ := setup()
		login.On("Execute", mock.Anything, credentials).Return(tokens, nil)

		w, env := doJSON(t, r, http.MethodPost, "/login", `{"username":"testuser","password":"testpassword"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var got appuser.LoginResponse
		decode(t, env.Data, &got)
		assert.Equal(t, "access", got.AccessToken)
		assert.Equal(t, "bearer", got.TokenType)
		login.AssertExpectations(t)
	})

	t.Run("表单登录", func(t *testing.T) {
		r, login, _, _ := setup()
		login.On("Execute", mock.Anything, credentials).Return(tokens, nil)

		w, _ := do(t, r, http.MethodPost, "/login",
			strings.NewReader("username=testuser&password=testpassword"), "application/x-www-form-urlencoded")

		assert.Equal(t, http.StatusOK, w.Code)
		login.AssertExpectations(t)
	})

	t.Run("缺少密码", func(t *testing.T) {
		r, login, _, _ := setup()

		w, env := doJSON(t, r, http.MethodPost, "/login", `{"username":"testuser"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, apperrors.ErrCodeValidation, env.Code)
		login.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("JSON格式错误", func(t *testing.T) {
		r, _, _, _ := setup()
		w, env := doJSON(t, r, http.MethodPost, "/login", `{"username":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.ErrCodeBindError, env.Code)
	})

	t.Run("密码错误", func(t *testing.T) {
		r, login, _, _ := setup()
		login.On("Execute", mock.Anything, mock.Anything).Return(nil, apperrors.ErrInvalidPassword)

		w, env := doJSON(t, r, http.MethodPost, "/login", `{"username":"testuser","password":"nope"}`)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperrors.ErrCodeInvalidPassword, env.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	})

	t.Run("登出", func(t *testing.T) {
		r, _, logout, _ := setup()
		logout.On("Execute", mock.Anything, uint(7), "tok-7").Return(nil)

		w, _ := do(t, r, http.MethodPost, "/logout", nil, "")

		assert.Equal(t, http.StatusNoContent, w.Code)
		logout.AssertExpectations(t)
	})

	t.Run("刷新Token", func(t *testing.T) {
		r, _, _, refresh := setup()
		refresh.On("Execute", "good").Return(&appuser.RefreshTokenResponse{AccessToken: "new", TokenType: "bearer"}, nil)
		refresh.On("Execute", "bad").Return(nil, apperrors.ErrInvalidToken)

		w, env := doJSON(t, r, http.MethodPost, "/refresh", `{"refresh_token":"good"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		var got appuser.RefreshTokenResponse
		decode(t, env.Data, &got)
		assert.Equal(t, "new", got.AccessToken)

		w, env = doJSON(t, r, http.MethodPost, "/refresh", `{"refresh_token":"bad"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, env.Code)
	})
}

func TestBookHandler(t *testing.T) {
	setup := func() (*gin.Engine, *mockListBooks, *mockGetBook, *mockDeleteBook) {
		list, get, del := new(mockListBooks), new(mockGetBook), new(mockDeleteBook)
		h := &BookHandler{listBooksUseCase: list, getBookUseCase: get, deleteBookUseCase: del}

		r := gin.New()
		r.Use(asUser)
		r.GET("/books", h.ListBooks)
		r.DELETE("/books/:id", h.DeleteBook)
		r.GET("/books/:id/reviews", h.GetBookReviews)
		return r, list, get, del
	}

	t.Run("列表参数透传", func(t *testing.T) {
		r, list, _, _ := setup()
		rating := 4.5
		list.On("Execute", mock.Anything, appbook.ListBooksRequest{Skip: 5, Limit: 20, Search: "dune"}).
			Return([]appbook.BookItem{{ID: 3, Title: "Dune", AverageRating: &rating}}, nil)

		w, env := do(t, r, http.MethodGet, "/books?skip=5&limit=20&search=dune", nil, "")

		assert.Equal(t, http.StatusOK, w.Code)
		var got []appbook.BookItem
		decode(t, env.Data, &got)
		require.Len(t, got, 1)
		assert.Equal(t, "Dune", got[0].Title)
		assert.Equal(t, 4.5, *got[0].AverageRating)
	})

	t.Run("分页参数类型错误", func(t *testing.T) {
		r, list, _, _ := setup()
		w, env := do(t, r, http.MethodGet, "/books?skip=abc", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.ErrCodeBindError, env.Code)
		list.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("分页越界由领域层拒绝", func(t *testing.T) {
		r, list, _, _ := setup()
		list.On("Execute", mock.Anything, appbook.ListBooksRequest{Limit: 500}).Return(nil, book.ErrInvalidPagination)

		w, _ := do(t, r, http.MethodGet, "/books?limit=500", nil, "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("图书评论", func(t *testing.T) {
		r, _, get, _ := setup()
		get.On("Execute", mock.Anything, uint(3)).Return(&appbook.BookDetail{
			BookItem: appbook.BookItem{ID: 3, Title: "Dune"},
			Reviews:  []appbook.ReviewItem{{ID: 1, BookID: 3, UserID: 7, Rating: 5}},
		}, nil)

		w, env := do(t, r, http.MethodGet, "/books/3/reviews", nil, "")

		assert.Equal(t, http.StatusOK, w.Code)
		var got appbook.BookDetail
		decode(t, env.Data, &got)
		assert.Equal(t, uint(3), got.ID)
		assert.Len(t, got.Reviews, 1)
	})

	t.Run("图书不存在", func(t *testing.T) {
		r, _, get, _ := setup()
		get.On("Execute", mock.Anything, uint(99)).Return(nil, book.ErrBookNotFound)

		w, env := do(t, r, http.MethodGet, "/books/99/reviews", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperrors.ErrCodeBookNotFound, env.Code)
	})

	t.Run("非法ID", func(t *testing.T) {
		r, _, _, _ := setup()
		w, _ := do(t, r, http.MethodGet, "/books/abc/reviews", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = do(t, r, http.MethodGet, "/books/0/reviews", nil, "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("删除图书", func(t *testing.T) {
		r, _, _, del := setup()
		del.On("Execute", mock.Anything, uint(3)).Return(nil)
		del.On("Execute", mock.Anything, uint(4)).Return(book.ErrBookNotFound)

		w, _ := do(t, r, http.MethodDelete, "/books/3", nil, "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w, _ = do(t, r, http.MethodDelete, "/books/4", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReviewHandler(t *testing.T) {
	setup := func() (*gin.Engine, *mockUpsertReview, *mockDeleteReview, *mockGetMyReview) {
		upsert, del, mine := new(mockUpsertReview), new(mockDeleteReview), new(mockGetMyReview)
		h := &ReviewHandler{upsertUseCase: upsert, deleteUseCase: del, getMyUseCase: mine}

		r := gin.New()
		r.Use(asUser)
		r.POST("/books/:id/reviews", h.UpsertReview)
		r.DELETE("/books/:id/reviews", h.DeleteReview)
		r.GET("/books/:id/reviews/me", h.GetMyReview)
		return r, upsert, del, mine
	}

	t.Run("提交评论", func(t *testing.T) {
		r, upsert, _, _ := setup()
		text := "Great"
		upsert.On("Execute", mock.Anything, mock.MatchedBy(func(req appreview.UpsertReviewRequest) bool {
			return req.BookID == 3 && req.UserID == 7 && req.Rating == 5 &&
				req.ReviewText != nil && *req.ReviewText == "Great"
		})).Return(&appbook.ReviewItem{ID: 1, BookID: 3, UserID: 7, Rating: 5, ReviewText: &text}, nil)

		w, env := doJSON(t, r, http.MethodPost, "/books/3/reviews", `{"rating":5,"review_text":"Great"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		var got appbook.ReviewItem
		decode(t, env.Data, &got)
		assert.Equal(t, 5, got.Rating)
		upsert.AssertExpectations(t)
	})

	t.Run("缺少评分", func(t *testing.T) {
		r, upsert, _, _ := setup()
		w, env := doJSON(t, r, http.MethodPost, "/books/3/reviews", `{"review_text":"Great"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, apperrors.ErrCodeValidation, env.Code)
		upsert.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("评分越界", func(t *testing.T) {
		r, upsert, _, _ := setup()
		upsert.On("Execute", mock.Anything, mock.Anything).Return(nil, book.ErrInvalidRating)

		w, env := doJSON(t, r, http.MethodPost, "/books/3/reviews", `{"rating":6}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, apperrors.ErrCodeInvalidRating, env.Code)
	})

	t.Run("图书不存在", func(t *testing.T) {
		r, upsert, _, _ := setup()
		upsert.On("Execute", mock.Anything, mock.Anything).Return(nil, book.ErrBookNotFound)

		w, _ := doJSON(t, r, http.MethodPost, "/books/99/reviews", `{"rating":3}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("删除不存在的评论也返回204", func(t *testing.T) {
		r, _, del, _ := setup()
		del.On("Execute", mock.Anything, uint(3), uint(7)).Return(false, nil)

		w, _ := do(t, r, http.MethodDelete, "/books/3/reviews", nil, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		del.AssertExpectations(t)
	})

	t.Run("我的评论为空时data为null", func(t *testing.T) {
		r, _, _, mine := setup()
		mine.On("Execute", mock.Anything, uint(3), uint(7)).Return(nil, nil)

		w, env := do(t, r, http.MethodGet, "/books/3/reviews/me", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "null", string(env.Data))
	})

	t.Run("我的评论", func(t *testing.T) {
		r, _, _, mine := setup()
		mine.On("Execute", mock.Anything, uint(3), uint(7)).Return(&appbook.ReviewItem{ID: 9, Rating: 4}, nil)

		w, env := do(t, r, http.MethodGet, "/books/3/reviews/me", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		var got appbook.ReviewItem
		decode(t, env.Data, &got)
		assert.Equal(t, uint(9), got.ID)
	})
}

func TestGoogleBooksHandler(t *testing.T) {
	setup := func() (*gin.Engine, *mockRemote, *mockImport) {
		remote, imp := new(mockRemote), new(mockImport)
		h := &GoogleBooksHandler{remote: remote, importBookUseCase: imp}

		r := gin.New()
		r.Use(asUser)
		r.GET("/google-books/search", h.Search)
		r.POST("/google-books/import", h.Import)
		r.GET("/google-books/:google_books_id", h.Get)
		return r, remote, imp
	}

	t.Run("搜索", func(t *testing.T) {
		r, remote, _ := setup()
		remote.On("Search", mock.Anything, "dune", 0).
			Return([]*book.Metadata{{ExternalID: "g1", Title: "Dune", Authors: []string{"Frank Herbert"}}}, nil)

		w, env := do(t, r, http.MethodGet, "/google-books/search?query=dune", nil, "")

		assert.Equal(t, http.StatusOK, w.Code)
		var got struct {
			Books        []book.Metadata `json:"books"`
			TotalResults int             `json:"total_results"`
		}
		decode(t, env.Data, &got)
		assert.Equal(t, 1, got.TotalResults)
		assert.Equal(t, "g1", got.Books[0].ExternalID)
	})

	t.Run("搜索参数校验", func(t *testing.T) {
		r, remote, _ := setup()

		w, _ := do(t, r, http.MethodGet, "/google-books/search?query=d", nil, "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		w, _ = do(t, r, http.MethodGet, "/google-books/search?query=dune&max_results=41", nil, "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		remote.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("详情", func(t *testing.T) {
		r, remote, _ := setup()
		remote.On("Get", mock.Anything, "g1").Return(&book.Metadata{ExternalID: "g1", Title: "Dune"}, nil)
		remote.On("Get", mock.Anything, "missing").Return(nil, book.ErrRemoteBookNotFound)

		w, env := do(t, r, http.MethodGet, "/google-books/g1", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		var got book.Metadata
		decode(t, env.Data, &got)
		assert.Equal(t, "Dune", got.Title)

		w, env = do(t, r, http.MethodGet, "/google-books/missing", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperrors.ErrCodeRemoteBookNotFound, env.Code)
	})

	t.Run("导入", func(t *testing.T) {
		r, _, imp := setup()
		imp.On("Execute", mock.Anything, appbook.ImportBookRequest{ExternalID: "g1", Genre: "Science Fiction"}).
			Return(&appbook.BookItem{ID: 8, Title: "Dune"}, nil)

		w, env := doJSON(t, r, http.MethodPost, "/google-books/import", `{"google_books_id":"g1","genre":"Science Fiction"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		var got appbook.BookItem
		decode(t, env.Data, &got)
		assert.Equal(t, uint(8), got.ID)
	})

	t.Run("重复导入", func(t *testing.T) {
		r, _, imp := setup()
		imp.On("Execute", mock.Anything, mock.Anything).Return(nil, book.ErrExternalIDExists)

		w, env := doJSON(t, r, http.MethodPost, "/google-books/import", `{"google_books_id":"g1","genre":"SF"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperrors.ErrCodeExternalIDExists, env.Code)
	})

	t.Run("genre为空白", func(t *testing.T) {
		r, _, imp := setup()
		w, _ := doJSON(t, r, http.MethodPost, "/google-books/import", `{"google_books_id":"g1","genre":"   "}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		imp.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})
}

func TestTaskHandler(t *testing.T) {
	setup := func() (*gin.Engine, *mockSubmitter, *mockStatus) {
		submit, status := new(mockSubmitter), new(mockStatus)
		h := &TaskHandler{submitUseCase: submit, statusUseCase: status}

		r := gin.New()
		r.Use(asUser)
		r.POST("/tasks/refresh-books", h.RefreshBooks)
		r.POST("/tasks/refresh-remote", h.RefreshRemote)
		r.POST("/tasks/calculate-statistics", h.CalculateStatistics)
		r.POST("/tasks/notify-new-book", h.NotifyNewBook)
		r.GET("/tasks/status/:task_id", h.Status)
		r.GET("/tasks/active", h.Active)
		return r, submit, status
	}

	pending := func(id string, kind job.Kind) *job.Handle {
		return &job.Handle{ID: id, Kind: kind, State: job.StatePending}
	}

	t.Run("提交任务返回202", func(t *testing.T) {
		r, submit, _ := setup()
		submit.On("Execute", mock.Anything, job.KindRefreshSeed).Return(pending("t-1", job.KindRefreshSeed), nil)
		submit.On("Execute", mock.Anything, job.KindRefreshRemote).Return(pending("t-2", job.KindRefreshRemote), nil)
		submit.On("Execute", mock.Anything, job.KindComputeStatistics).Return(pending("t-3", job.KindComputeStatistics), nil)

		cases := map[string]string{
			"/tasks/refresh-books":        "t-1",
			"/tasks/refresh-remote":       "t-2",
			"/tasks/calculate-statistics": "t-3",
		}
		for path, id := range cases {
			w, env := do(t, r, http.MethodPost, path, nil, "")
			assert.Equal(t, http.StatusAccepted, w.Code, path)

			var got struct {
				TaskID string `json:"task_id"`
				Status string `json:"status"`
			}
			decode(t, env.Data, &got)
			assert.Equal(t, id, got.TaskID)
			assert.Equal(t, "pending", got.Status)
		}
		submit.AssertExpectations(t)
	})

	t.Run("队列不可用", func(t *testing.T) {
		r, submit, _ := setup()
		submit.On("Execute", mock.Anything, job.KindRefreshSeed).
			Return(nil, apperrors.WrapCode(errors.New("connection refused"), apperrors.ErrCodeQueueError, "提交任务失败"))

		w, env := do(t, r, http.MethodPost, "/tasks/refresh-books", nil, "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, apperrors.ErrCodeQueueError, env.Code)
	})

	t.Run("新书通知-query参数", func(t *testing.T) {
		r, submit, _ := setup()
		submit.On("NotifyNewBook", mock.Anything, "Dune", "Frank Herbert").Return(pending("t-4", job.KindNotify), nil)

		w, _ := do(t, r, http.MethodPost, "/tasks/notify-new-book?book_title=Dune&book_author=Frank+Herbert", strings.NewReader(""), "")
		assert.Equal(t, http.StatusAccepted, w.Code)
		submit.AssertExpectations(t)
	})

	t.Run("新书通知-JSON", func(t *testing.T) {
		r, submit, _ := setup()
		submit.On("NotifyNewBook", mock.Anything, "Dune", "Frank Herbert").Return(pending("t-5", job.KindNotify), nil)

		w, _ := doJSON(t, r, http.MethodPost, "/tasks/notify-new-book", `{"book_title":"Dune","book_author":"Frank Herbert"}`)
		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("新书通知缺少作者", func(t *testing.T) {
		r, submit, _ := setup()
		w, _ := doJSON(t, r, http.MethodPost, "/tasks/notify-new-book", `{"book_title":"Dune"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		submit.AssertNotCalled(t, "NotifyNewBook", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("任务状态", func(t *testing.T) {
		r, _, status := setup()
		status.On("Get", mock.Anything, "t-1").Return(&job.Record{
			ID:     "t-1",
			Kind:   job.KindComputeStatistics,
			State:  job.StateDone,
			Result: &job.Result{Status: job.ResultSuccess, Counts: map[string]int64{"total_books": 7}},
		}, nil)
		status.On("Get", mock.Anything, "gone").Return(nil, job.ErrJobNotFound)

		w, env := do(t, r, http.MethodGet, "/tasks/status/t-1", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		var got job.Record
		decode(t, env.Data, &got)
		assert.Equal(t, job.StateDone, got.State)
		assert.EqualValues(t, 7, got.Result.Counts["total_books"])

		w, env = do(t, r, http.MethodGet, "/tasks/status/gone", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperrors.ErrCodeJobNotFound, env.Code)
	})

	t.Run("进行中的任务为空时返回空数组", func(t *testing.T) {
		r, _, status := setup()
		status.On("ListActive", mock.Anything).Return(nil, nil)

		w, env := do(t, r, http.MethodGet, "/tasks/active", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		var got struct {
			Tasks []json.RawMessage `json:"tasks"`
			Total int               `json:"total"`
		}
		decode(t, env.Data, &got)
		assert.NotNil(t, got.Tasks)
		assert.Equal(t, 0, got.Total)
		assert.Contains(t, string(env.Data), `"tasks":[]`)
	})
}
