package handlers

// Тесты HTTP-хендлеров: разбор query-параметров, форма JSON-ответа и
// маппинг сервисных ошибок в статусы. Сервисный слой подменяется стабом.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/atlasguides/guide-admin/comments-service/internal/models"
	"github.com/atlasguides/guide-admin/comments-service/internal/service"
)

const (
	testArticleID = "65e0a0c9fd2f000000000001"
	testCommentID = "65e0a0c9fd2f000000000002"
)

type stubService struct {
	list func(ctx context.Context, in service.ListCommentsInput) (*models.Page, error)
	byID func(ctx context.Context, id string) (*models.Comment, error)
}

func (s *stubService) ListComments(ctx context.Context, in service.ListCommentsInput) (*models.Page, error) {
	return s.list(ctx, in)
}

func (s *stubService) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	return s.byID(ctx, id)
}

// newTestRouter — роутер с теми же шаблонами путей, что и боевой.
func newTestRouter(svc CommentsService) http.Handler {
	h := New(svc)
	r := chi.NewRouter()
	r.Get("/articles/{article_id}/comments", h.ListArticleComments)
	r.Get("/comments/{id}", h.GetCommentByID)
	r.Get("/comments/{id}/replies", h.ListReplies)
	return r
}

func doGet(t *testing.T, router http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func appliedPage() *models.Page {
	return &models.Page{
		Items: []models.Comment{},
		Applied: models.ListQuery{
			PageSize: 100,
			SortKey:  models.SortKeyCreatedAt,
			SortDir:  models.SortDesc,
			Status:   models.StatusAny,
		},
	}
}

// Разбор параметров: всё из query-строки доходит до сервиса как есть,
// числовые/булевы — типизированными.
func TestListArticleComments_ParsesParams(t *testing.T) {
	var got service.ListCommentsInput
	router := newTestRouter(&stubService{
		list: func(_ context.Context, in service.ListCommentsInput) (*models.Page, error) {
			got = in
			return appliedPage(), nil
		},
	})

	rec := doGet(t, router, "/articles/"+testArticleID+"/comments"+
		"?parentId="+testCommentID+
		"&cursor=tok&pageSize=25&sortKey=likes&sortDir=asc"+
		"&status=pending&minLikes=3&hasReplies=true"+
		"&authorName=Ann&searchQuery=trail")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, testArticleID, got.ArticleID)
	require.Equal(t, testCommentID, got.ParentID)
	require.Equal(t, "tok", got.Query.Cursor)
	require.Equal(t, int32(25), got.Query.PageSize)
	require.Equal(t, models.SortKeyLikes, got.Query.SortKey)
	require.Equal(t, models.SortAsc, got.Query.SortDir)
	require.Equal(t, models.StatusPending, got.Query.Status)
	require.NotNil(t, got.Query.MinLikes)
	require.Equal(t, int64(3), *got.Query.MinLikes)
	require.NotNil(t, got.Query.HasReplies)
	require.True(t, *got.Query.HasReplies)
	require.Equal(t, "Ann", got.Query.AuthorName)
	require.Equal(t, "trail", got.Query.SearchQuery)
}

// Литерал parentId="null" эквивалентен отсутствию параметра: корневая выборка.
func TestListArticleComments_ParentIDNullLiteral(t *testing.T) {
	var got service.ListCommentsInput
	router := newTestRouter(&stubService{
		list: func(_ context.Context, in service.ListCommentsInput) (*models.Page, error) {
			got = in
			return appliedPage(), nil
		},
	})

	rec := doGet(t, router, "/articles/"+testArticleID+"/comments?parentId=null")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, got.ParentID)
}

// Нечисловые/не-булевы параметры — клиентская ошибка 400 до вызова сервиса.
func TestListArticleComments_BadParams(t *testing.T) {
	router := newTestRouter(&stubService{
		list: func(_ context.Context, _ service.ListCommentsInput) (*models.Page, error) {
			t.Fatalf("service must not be called on bad params")
			return nil, nil
		},
	})

	for _, qs := range []string{"pageSize=abc", "minLikes=many", "hasReplies=maybe"} {
		rec := doGet(t, router, "/articles/"+testArticleID+"/comments?"+qs)
		require.Equal(t, http.StatusBadRequest, rec.Code, qs)

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), qs)
		require.Equal(t, "invalid_argument", body.Error.Code, qs)
	}
}

// Форма ответа списка: узлы, эхо параметров, nextCursor строго при
// hasNextPage, sentinel-автор для осиротевшей ссылки.
func TestListArticleComments_ResponseShape(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	avatar := "https://cdn.example.com/a.png"
	authorID := uuid.New()
	orphanID := uuid.New()

	page := &models.Page{
		Items: []models.Comment{
			{
				ID:        testCommentID,
				ArticleID: testArticleID,
				Author: models.AuthorPreview{
					ID:        authorID,
					Name:      "Ann",
					Role:      models.RoleModerator,
					AvatarURL: &avatar,
					Resolved:  true,
				},
				Content:    "hello",
				Likes:      3,
				Status:     models.StatusApproved,
				ReplyCount: 1,
				CreatedAt:  created,
				UpdatedAt:  created,
			},
			{
				ID:        "65e0a0c9fd2f000000000003",
				ArticleID: testArticleID,
				Author:    models.AuthorPreview{ID: orphanID}, // не разрешился
				Content:   "orphan",
				Status:    models.StatusPending,
				CreatedAt: created,
				UpdatedAt: created,
			},
		},
		NextCursor:  "next-token",
		HasNextPage: true,
		Applied: models.ListQuery{
			PageSize: 2,
			SortKey:  models.SortKeyCreatedAt,
			SortDir:  models.SortDesc,
			Status:   models.StatusAny,
		},
	}

	router := newTestRouter(&stubService{
		list: func(_ context.Context, _ service.ListCommentsInput) (*models.Page, error) {
			return page, nil
		},
	})

	rec := doGet(t, router, "/articles/"+testArticleID+"/comments?cursor=prev-token")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ListCommentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Nodes, 2)
	first := resp.Nodes[0]
	require.Equal(t, testCommentID, first.ID)
	require.Nil(t, first.ParentID)
	require.Equal(t, "Ann", first.Author.Name)
	require.Equal(t, string(models.RoleModerator), first.Author.Role)
	require.NotNil(t, first.Author.AvatarURL)
	require.Equal(t, created.Format(time.RFC3339Nano), first.CreatedAt)
	require.Empty(t, first.Children)

	// Sentinel: узел не пропадает, author_id сохранён.
	second := resp.Nodes[1]
	require.Equal(t, "Unknown", second.Author.Name)
	require.Equal(t, string(models.RoleUser), second.Author.Role)
	require.Equal(t, orphanID.String(), second.Author.ID)
	require.Nil(t, second.Author.AvatarURL)

	meta := resp.Meta
	require.Equal(t, "prev-token", meta.Pagination.Cursor)
	require.True(t, meta.Pagination.HasNextPage)
	require.NotNil(t, meta.Pagination.NextCursor)
	require.Equal(t, "next-token", *meta.Pagination.NextCursor)
	require.Equal(t, int32(2), meta.Pagination.PageSize)
	require.Equal(t, models.SortKeyCreatedAt, meta.Sort.Key)
	require.Equal(t, models.SortDesc, meta.Sort.Dir)
	require.Equal(t, string(models.StatusAny), meta.Filters.Status)
	require.NotNil(t, meta.Scope.ArticleID)
	require.Equal(t, testArticleID, *meta.Scope.ArticleID)
	require.Nil(t, meta.Scope.ParentID)
	require.Nil(t, meta.Scope.DepthMax)
}

// Терминальная страница: nextCursor — json null.
func TestListArticleComments_TerminalPage(t *testing.T) {
	router := newTestRouter(&stubService{
		list: func(_ context.Context, _ service.ListCommentsInput) (*models.Page, error) {
			return appliedPage(), nil
		},
	})

	rec := doGet(t, router, "/articles/"+testArticleID+"/comments")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListCommentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Nodes)
	require.False(t, resp.Meta.Pagination.HasNextPage)
	require.Nil(t, resp.Meta.Pagination.NextCursor)
}

// ListReplies: id пути становится parentId области, articleId в scope — null.
func TestListReplies(t *testing.T) {
	var got service.ListCommentsInput
	router := newTestRouter(&stubService{
		list: func(_ context.Context, in service.ListCommentsInput) (*models.Page, error) {
			got = in
			return appliedPage(), nil
		},
	})

	rec := doGet(t, router, "/comments/"+testCommentID+"/replies?sortDir=asc")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, got.ArticleID)
	require.Equal(t, testCommentID, got.ParentID)

	var resp ListCommentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Nil(t, resp.Meta.Scope.ArticleID)
	require.NotNil(t, resp.Meta.Scope.ParentID)
	require.Equal(t, testCommentID, *resp.Meta.Scope.ParentID)
}

// Маппинг сервисных ошибок в статусы на списковой ручке.
func TestListArticleComments_ServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrInvalidArgument, http.StatusBadRequest},
		{service.ErrUnavailable, http.StatusServiceUnavailable},
		{service.ErrInternal, http.StatusInternalServerError},
		{errors.New("opaque"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		router := newTestRouter(&stubService{
			list: func(_ context.Context, _ service.ListCommentsInput) (*models.Page, error) {
				return nil, tc.err
			},
		})

		rec := doGet(t, router, "/articles/"+testArticleID+"/comments")
		require.Equal(t, tc.code, rec.Code, tc.err)
	}
}

// GetCommentByID: happy-path и 404.
func TestGetCommentByID(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	router := newTestRouter(&stubService{
		byID: func(_ context.Context, id string) (*models.Comment, error) {
			if id != testCommentID {
				return nil, service.ErrNotFound
			}
			return &models.Comment{
				ID:        testCommentID,
				ArticleID: testArticleID,
				ParentID:  testArticleID,
				Author:    models.AuthorPreview{ID: uuid.New(), Name: "Ann", Role: models.RoleUser, Resolved: true},
				Content:   "hello",
				Status:    models.StatusApproved,
				CreatedAt: created,
				UpdatedAt: created,
			}, nil
		},
	})

	rec := doGet(t, router, "/comments/"+testCommentID)
	require.Equal(t, http.StatusOK, rec.Code)

	var node CommentNode
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &node))
	require.Equal(t, testCommentID, node.ID)
	require.NotNil(t, node.ParentID)
	require.Equal(t, "hello", node.Content)

	rec = doGet(t, router, "/comments/65e0a0c9fd2f0000000000ff")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
