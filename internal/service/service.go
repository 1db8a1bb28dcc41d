// service содержит бизнес-логику выдачи комментариев для модерации.
package service

import (
	"errors"

	"github.com/atlasguides/guide-admin/comments-service/internal/config"
	"github.com/atlasguides/guide-admin/comments-service/internal/storage"
)

var (
	// ErrInvalidArgument — неверные входные параметры запроса к сервису
	// (в т.ч. некорректный формат идентификатора статьи/родителя).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable — транзиентный сбой хранилища; ретраев на этом слое нет,
	// решение о повторе принадлежит вызывающему (повтор с тем же курсором
	// идемпотентен по построению).
	ErrUnavailable = errors.New("unavailable")
	// ErrInternal — внутренняя ошибка (сторадж/БД/контекст/и т.д.).
	ErrInternal = errors.New("internal")
)

// Service — бизнес-логика comments-service: валидация области запроса,
// нормализация параметров выдачи и маппинг ошибок стораджа.
type Service struct {
	storage storage.Storage
	cfg     config.Config
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.Config) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
	}
}
