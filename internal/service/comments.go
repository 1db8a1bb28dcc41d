package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/atlasguides/guide-admin/comments-service/internal/models"
	"github.com/atlasguides/guide-admin/comments-service/internal/storage"
	"github.com/atlasguides/guide-admin/comments-service/pkg/log"
)

// ListCommentsInput — параметры постраничной выдачи.
// Две точки вызова (корни статьи и ответы ветки) сходятся в одну операцию;
// различается только область:
//   - ParentID == "" — корневая выборка, ArticleID обязателен;
//   - ParentID != "" — дети родителя, ArticleID опционален (доп. сужение).
type ListCommentsInput struct {
	ArticleID string
	ParentID  string
	Query     models.ListQuery
}

// ListComments — страница дерева комментариев для модерации.
//
// Валидация (до обращения к хранилищу):
//   - формат ArticleID/ParentID — hex ObjectID; иначе ErrInvalidArgument;
//   - для корневой выборки ArticleID обязателен.
//
// Нормализация (fail-open там, где это зафиксировано политикой):
//   - нераспознанный sortKey -> createdAt;
//   - пустое направление -> desc для корней, asc для ответов
//     (асимметрия исторических точек вызова сохранена осознанно);
//   - неизвестный статус-фильтр -> any;
//   - pageSize: 0 -> дефолт, затем клэмп к [1, Max];
//   - неположительный minLikes не ограничивает выдачу.
//
// Поведение/ошибки:
//   - ErrUnavailable — транзиентный сбой хранилища (без внутренних ретраев);
//   - отмена контекста пробрасывается как есть;
//   - ErrInternal — прочие ошибки стораджа.
//
// Битый курсор ошибкой не является: выдача начинается с начала (fail-open).
func (s *Service) ListComments(ctx context.Context, in ListCommentsInput) (*models.Page, error) {
	const op = "service/comments/ListComments"

	lg := log.From(ctx).With(
		"op", op,
		"article_id", in.ArticleID,
		"parent_id", in.ParentID,
	)

	scope, err := s.validateScope(in)
	if err != nil {
		lg.Warn("invalid scope", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q := s.normalizeQuery(scope, in.Query)

	page, err := s.storage.ListComments(ctx, scope, q)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("%s: %w", op, context.Canceled)
		case errors.Is(err, storage.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
			lg.Warn("storage unavailable", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
		case errors.Is(err, storage.ErrNotFound):
			// Сторадж не распознал идентификаторы области — до него такой
			// запрос дойти не должен был; трактуем как клиентскую ошибку.
			lg.Warn("scope not resolvable")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		default:
			lg.Error("storage error on ListComments", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	// Эхо фактически применённых параметров — для bookkeeping вызывающего.
	page.Applied = q

	return page, nil
}

// CommentByID — обогащённый комментарий по ID (deep-link из интерфейса модерации).
//
// Валидация:
//   - id не должен быть пустым.
//
// Поведение/ошибки:
//   - ErrNotFound — если комментарий не найден (включая неверный формат id);
//   - ErrUnavailable / ErrInternal — как в ListComments.
func (s *Service) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "service/comments/CommentByID"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	result, err := s.storage.CommentByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		case errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("%s: %w", op, context.Canceled)
		case errors.Is(err, storage.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
			lg.Warn("storage unavailable", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
		default:
			lg.Error("storage error on CommentByID", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return result, nil
}

// validateScope проверяет формат идентификаторов области до обращения к БД.
func (s *Service) validateScope(in ListCommentsInput) (models.Scope, error) {
	articleID := strings.TrimSpace(in.ArticleID)
	parentID := strings.TrimSpace(in.ParentID)

	if parentID == "" && articleID == "" {
		return models.Scope{}, fmt.Errorf("empty article id for root scope: %w", ErrInvalidArgument)
	}

	if articleID != "" {
		if _, err := primitive.ObjectIDFromHex(articleID); err != nil {
			return models.Scope{}, fmt.Errorf("invalid article id: %w", ErrInvalidArgument)
		}
	}

	if parentID != "" {
		if _, err := primitive.ObjectIDFromHex(parentID); err != nil {
			return models.Scope{}, fmt.Errorf("invalid parent id: %w", ErrInvalidArgument)
		}
	}

	return models.Scope{ArticleID: articleID, ParentID: parentID}, nil
}

// normalizeQuery приводит пользовательские параметры к эффективным.
func (s *Service) normalizeQuery(scope models.Scope, q models.ListQuery) models.ListQuery {
	switch q.SortKey {
	case models.SortKeyCreatedAt, models.SortKeyUpdatedAt, models.SortKeyLikes, models.SortKeyStatus:
	default:
		// fail-open: опечатка в ключе сортировки не ломает модерацию.
		q.SortKey = models.SortKeyCreatedAt
	}

	switch q.SortDir {
	case models.SortAsc, models.SortDesc:
	default:
		if scope.IsRoot() {
			q.SortDir = models.SortDesc
		} else {
			q.SortDir = models.SortAsc
		}
	}

	if !q.Status.Valid() {
		q.Status = models.StatusAny
	}

	if q.PageSize == 0 {
		q.PageSize = s.cfg.Limits.Default
	}
	if q.PageSize < 1 {
		q.PageSize = 1
	}
	if q.PageSize > s.cfg.Limits.Max {
		q.PageSize = s.cfg.Limits.Max
	}

	if q.MinLikes != nil && *q.MinLikes <= 0 {
		q.MinLikes = nil
	}

	q.AuthorName = strings.TrimSpace(q.AuthorName)
	q.SearchQuery = strings.TrimSpace(q.SearchQuery)

	return q
}
