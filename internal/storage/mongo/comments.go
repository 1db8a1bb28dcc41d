package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/atlasguides/guide-admin/comments-service/internal/models"
	"github.com/atlasguides/guide-admin/comments-service/internal/storage"
)

// authorRow — приджойненный документ автора.
type authorRow struct {
	ID   uuid.UUID `bson:"_id"`
	Name string    `bson:"name"`
	Role string    `bson:"role"`
}

// commentRow — строка результата конвейера: документ комментария плюс
// материализованные likes_count/reply_count и приджойненные author/avatar_url.
type commentRow struct {
	ID         primitive.ObjectID  `bson:"_id"`
	ArticleID  primitive.ObjectID  `bson:"article_id"`
	ParentID   *primitive.ObjectID `bson:"parent_id"`
	AuthorID   uuid.UUID           `bson:"author_id"`
	Content    string              `bson:"content"`
	Status     string              `bson:"status"`
	LikesCount int64               `bson:"likes_count"`
	ReplyCount int64               `bson:"reply_count"`
	CreatedAt  time.Time           `bson:"created_at"`
	UpdatedAt  time.Time           `bson:"updated_at"`
	Author     *authorRow          `bson:"author"`
	AvatarURL  *string             `bson:"avatar_url"`
}

// toModel конвертирует строку конвейера в доменную модель.
// Отсутствие автора (осиротевшая ссылка) — не ошибка: Resolved=false,
// sentinel-дефолты подставит DTO-слой, узел из страницы не пропадает.
func (r commentRow) toModel() models.Comment {
	out := models.Comment{
		ID:         r.ID.Hex(),
		ArticleID:  r.ArticleID.Hex(),
		Content:    r.Content,
		Likes:      r.LikesCount,
		Status:     models.Status(r.Status),
		ReplyCount: r.ReplyCount,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}

	if r.ParentID != nil {
		out.ParentID = r.ParentID.Hex()
	}

	// Ссылка на автора сохраняется и при непройденном джойне: DTO-слой
	// подставит sentinel-имя, но идентификатор не потеряется.
	out.Author = models.AuthorPreview{ID: r.AuthorID}
	if r.Author != nil {
		out.Author = models.AuthorPreview{
			ID:        r.Author.ID,
			Name:      r.Author.Name,
			Role:      models.Role(r.Author.Role),
			AvatarURL: r.AvatarURL,
			Resolved:  true,
		}
	}

	return out
}

// limitOrDefault приводит запрошенный размер страницы к [1, Max]; 0 — Default.
func limitOrDefault(pageSize, def, max int32) int64 {
	lim := pageSize
	if lim == 0 {
		lim = def
	}

	if lim < 1 {
		lim = 1
	}

	if lim > max {
		lim = max
	}

	return int64(lim)
}

// ListComments возвращает страницу комментариев области scope.
// Вся композиция фильтр+сортировка+джойны+лимит уходит в БД одной
// aggregate-операцией: один suspension point на запрос, ретраев на этом
// слое нет — транзиентный сбой отдаётся вызывающему как ErrUnavailable.
//
// Курсор декодируется fail-open: битый токен эквивалентен его отсутствию.
// Для обнаружения следующей страницы запрашивается pageSize+1 записей;
// следующий курсор строится по последней УДЕРЖАННОЙ записи, не по лишней.
func (m *Mongo) ListComments(ctx context.Context, scope models.Scope, q models.ListQuery) (*models.Page, error) {
	const op = "storage/mongo/ListComments"

	scopeMatch, err := compileScope(scope)
	if err != nil {
		// Формат идентификаторов валидируется сервисным слоем до запроса;
		// здесь это «нет такой записи».
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	sp := resolveSort(q.SortKey, q.SortDir)
	cur := decodeCursor(q.Cursor)
	limit := limitOrDefault(q.PageSize, m.cfg.Limits.Default, m.cfg.Limits.Max)

	pipe := listPipeline(
		scopeMatch,
		compilePreMatch(q),
		compileDerivedMatch(q, sp.rangePredicate(cur)),
		compileAuthorMatch(q),
		sp,
		limit+1,
	)

	// Сортировки по непокрытому индексом полю могут спиллиться на диск.
	aggOpts := options.Aggregate().SetAllowDiskUse(true)

	c, err := m.comments.Aggregate(ctx, pipe, aggOpts)
	if err != nil {
		return nil, wrapStoreErr(op, "aggregate", err)
	}
	defer c.Close(ctx)

	var rows []commentRow
	for c.Next(ctx) {
		var row commentRow
		if err := c.Decode(&row); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}
		rows = append(rows, row)
	}

	if err := c.Err(); err != nil {
		return nil, wrapStoreErr(op, "cursor", err)
	}

	hasNext := int64(len(rows)) > limit
	if hasNext {
		rows = rows[:limit]
	}

	items := make([]models.Comment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toModel())
	}

	var next string
	if hasNext {
		last := rows[len(rows)-1]
		next = encodeCursor(sp.valueOf(last), last.ID)
	}

	return &models.Page{
		Items:       items,
		NextCursor:  next,
		HasNextPage: hasNext,
	}, nil
}

// CommentByID возвращает обогащённый комментарий по идентификатору.
// Некорректный формат id трактуется как «нет такой записи».
func (m *Mongo) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage/mongo/CommentByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	pipe := mongodriver.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "_id", Value: oid},
			{Key: "deleted_at", Value: nil},
		}}},
		derivedFieldsStage(),
	}
	pipe = append(pipe, lookupStages(authorChain)...)
	pipe = append(pipe, avatarStage())
	pipe = append(pipe, bson.D{{Key: "$limit", Value: 1}})

	c, err := m.comments.Aggregate(ctx, pipe)
	if err != nil {
		return nil, wrapStoreErr(op, "aggregate", err)
	}
	defer c.Close(ctx)

	if !c.Next(ctx) {
		if err := c.Err(); err != nil {
			return nil, wrapStoreErr(op, "cursor", err)
		}
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var row commentRow
	if err := c.Decode(&row); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	out := row.toModel()
	return &out, nil
}

// wrapStoreErr переводит сетевые/дедлайновые сбои драйвера в ErrUnavailable;
// отмена контекста пробрасывается как есть, чтобы транспорт отличал 499 от 5xx.
func wrapStoreErr(op, stage string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %s: %w", op, stage, err)
	case errors.Is(err, context.DeadlineExceeded),
		mongodriver.IsTimeout(err),
		mongodriver.IsNetworkError(err):
		return fmt.Errorf("%s: %s: %w", op, stage, storage.ErrUnavailable)
	default:
		return fmt.Errorf("%s: %s: %w", op, stage, err)
	}
}
