package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/atlasguides/guide-admin/comments-service/internal/errors"
	"github.com/atlasguides/guide-admin/comments-service/internal/models"
	"github.com/atlasguides/guide-admin/comments-service/internal/service"
)

// ListArticleComments — страница комментариев статьи.
// По умолчанию отдаются корни (parent_id == null); query-параметр parentId
// переключает ту же выдачу на детей конкретного родителя. Литерал "null"
// эквивалентен отсутствию параметра.
func (h *Handlers) ListArticleComments(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "article_id")
	if articleID == "" {
		apierrors.WriteError(w, r, fmt.Errorf("empty article id: %w", service.ErrInvalidArgument))
		return
	}

	parentID := ""
	if v := strings.TrimSpace(r.URL.Query().Get("parentId")); v != "" && v != "null" {
		parentID = v
	}

	q, err := parseListQuery(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	page, err := h.Service.ListComments(r.Context(), service.ListCommentsInput{
		ArticleID: articleID,
		ParentID:  parentID,
		Query:     q,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(articleID, parentID, q.Cursor, page))
}

// ListReplies — страница прямых ответов на комментарий (ленивая подгрузка
// поддерева: интерфейс модерации раскрывает узел и запрашивает его детей).
func (h *Handlers) ListReplies(w http.ResponseWriter, r *http.Request) {
	parentID := chi.URLParam(r, "id")
	if parentID == "" {
		apierrors.WriteError(w, r, fmt.Errorf("empty parent id: %w", service.ErrInvalidArgument))
		return
	}

	q, err := parseListQuery(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	page, err := h.Service.ListComments(r.Context(), service.ListCommentsInput{
		ParentID: parentID,
		Query:    q,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toListResponse("", parentID, q.Cursor, page))
}

// GetCommentByID — одиночный обогащённый комментарий (deep-link).
func (h *Handlers) GetCommentByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		apierrors.WriteError(w, r, fmt.Errorf("empty id: %w", service.ErrInvalidArgument))
		return
	}

	comment, err := h.Service.CommentByID(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toNode(*comment))
}

// parseListQuery разбирает общие query-параметры обоих списковых эндпойнтов.
// Нечисловые pageSize/minLikes и не-булев hasReplies — клиентские ошибки;
// enum-подобные строки (sortKey/sortDir/status) нормализуются сервисом
// fail-open и здесь не проверяются.
func parseListQuery(r *http.Request) (models.ListQuery, error) {
	qs := r.URL.Query()

	q := models.ListQuery{
		Cursor:      qs.Get("cursor"),
		SortKey:     qs.Get("sortKey"),
		SortDir:     qs.Get("sortDir"),
		Status:      models.Status(qs.Get("status")),
		AuthorName:  qs.Get("authorName"),
		SearchQuery: qs.Get("searchQuery"),
	}

	if v := qs.Get("pageSize"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return q, fmt.Errorf("bad pageSize: %w", service.ErrInvalidArgument)
		}
		q.PageSize = int32(n)
	}

	if v := qs.Get("minLikes"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return q, fmt.Errorf("bad minLikes: %w", service.ErrInvalidArgument)
		}
		q.MinLikes = &n
	}

	if v := qs.Get("hasReplies"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("bad hasReplies: %w", service.ErrInvalidArgument)
		}
		q.HasReplies = &b
	}

	return q, nil
}
