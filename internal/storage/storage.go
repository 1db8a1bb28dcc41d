package storage

import (
	"context"
	"errors"

	"github.com/atlasguides/guide-admin/comments-service/internal/models"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable — хранилище недоступно или не уложилось в дедлайн.
	ErrUnavailable = errors.New("storage unavailable")
)

// Storage описывает read-only операции движка выдачи комментариев.
// Запись (создание/модерация/нотификации) живёт в другом сервисе.
type Storage interface {
	// ListComments возвращает страницу комментариев для области scope
	// (корни статьи либо дети родителя) с фильтрами, сортировкой и
	// keyset-курсором из q. Битый курсор не является ошибкой: выдача
	// начинается с начала результата.
	//
	// Ожидает уже нормализованный q (см. service): SortKey/SortDir из
	// допустимого множества, PageSize в границах лимитов.
	ListComments(ctx context.Context, scope models.Scope, q models.ListQuery) (*models.Page, error)

	// CommentByID возвращает обогащённый комментарий по hex ObjectID.
	// Если запись не найдена (включая неверный формат id) — ErrNotFound.
	CommentByID(ctx context.Context, id string) (*models.Comment, error)

	// Close закрывает соединения/ресурсы хранилища.
	Close(ctx context.Context) error
}
