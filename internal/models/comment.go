// Package models содержит доменные сущности comments-сервиса админ-платформы.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status — статус модерации комментария.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"

	// StatusAny — «любой статус» в фильтре; не хранится в документах.
	StatusAny Status = "any"
)

// Valid сообщает, является ли значение конкретным хранимым статусом.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}

	return false
}

// Role — роль автора в админ-платформе (малый фиксированный набор).
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleGuide     Role = "guide"
	RoleUser      Role = "user"
)

// Логические ключи сортировки выдачи.
const (
	SortKeyCreatedAt = "createdAt"
	SortKeyUpdatedAt = "updatedAt"
	SortKeyLikes     = "likes"
	SortKeyStatus    = "status"
)

// Направления сортировки.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// AuthorPreview — превью автора комментария после цепочки enrichment-джойнов
// (автор -> аватар-ассет -> файл ассета -> публичный URL).
//   - ID — UUID автора из смежного сервиса идентичности.
//   - AvatarURL — nil, если любой из хопов цепочки не разрешился.
//   - Resolved=false означает осиротевшую ссылку author_id: наружу отдаётся
//     sentinel-автор («Unknown»), узел из выдачи не пропадает.
type AuthorPreview struct {
	ID        uuid.UUID
	Name      string
	Role      Role
	AvatarURL *string
	Resolved  bool
}

// Comment — обогащённый комментарий: документ из хранилища плюс
// вычисленные (Likes, ReplyCount) и приджойненные (Author) поля.
// Важно:
//   - ID/ArticleID/ParentID — hex ObjectID MongoDB; наружу конвертируются в string.
//   - ParentID == "" — корневой комментарий.
//   - Likes — мощность множества лайк-записей, не хранимый счётчик.
//   - ReplyCount — количество прямых детей (stored-поле, отсутствие = 0).
type Comment struct {
	ID         string
	ArticleID  string
	ParentID   string
	Author     AuthorPreview
	Content    string
	Likes      int64
	Status     Status
	ReplyCount int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Scope — параметризация единого движка выдачи: корни статьи либо дети родителя.
//   - ArticleID обязателен для корневой выборки; для детей — опционален
//     (дополнительное сужение по статье).
//   - ParentID == "" — корневая выборка (parent_id == null).
type Scope struct {
	ArticleID string
	ParentID  string
}

// IsRoot сообщает, что область запроса — корневые комментарии.
func (s Scope) IsRoot() bool {
	return s.ParentID == ""
}

// ListQuery — параметры постраничной выдачи (все поля приходят извне и не доверяются).
//   - Cursor — непрозрачный токен keyset-пагинации; битый токен эквивалентен отсутствию.
//   - HasReplies — tri-state: nil — без ограничения.
//   - AuthorName/SearchQuery — регистронезависимые substring-фильтры.
type ListQuery struct {
	Cursor      string
	PageSize    int32
	SortKey     string
	SortDir     string
	Status      Status
	MinLikes    *int64
	HasReplies  *bool
	AuthorName  string
	SearchQuery string
}

// Page — результат постраничной выдачи.
//   - NextCursor непуст тогда и только тогда, когда HasNextPage.
//   - Applied — эхо фактически применённых sort/filters (после нормализации).
type Page struct {
	Items       []Comment
	NextCursor  string
	HasNextPage bool
	Applied     ListQuery
}
