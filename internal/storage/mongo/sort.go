package mongo

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/atlasguides/guide-admin/comments-service/internal/models"
)

// Поля конвейера, материализуемые до сортировки/фильтрации (см. pipeline.go).
const (
	likesCountField = "likes_count"
	replyCountField = "reply_count"
)

// sortSpec — разрешённая спецификация сортировки: логический ключ,
// конкретное поле документа/конвейера и направление.
type sortSpec struct {
	key   string
	field string
	dir   int // 1 — asc, -1 — desc
}

// resolveSort переводит логический ключ сортировки в поле конвейера.
// Нераспознанный ключ проваливается в createdAt (fail-open: опечатка в
// инструменте модерации не должна ронять запрос). Направление ожидается
// уже нормализованным сервисным слоем.
func resolveSort(sortKey, sortDir string) sortSpec {
	sp := sortSpec{key: sortKey, dir: 1}
	if sortDir == models.SortDesc {
		sp.dir = -1
	}

	switch sortKey {
	case models.SortKeyCreatedAt:
		sp.field = "created_at"
	case models.SortKeyUpdatedAt:
		sp.field = "updated_at"
	case models.SortKeyLikes:
		sp.field = likesCountField
	case models.SortKeyStatus:
		sp.field = "status"
	default:
		sp.key = models.SortKeyCreatedAt
		sp.field = "created_at"
	}

	return sp
}

// sortStage — стадия $sort. Вторичный ключ _id ВСЕГДА по возрастанию,
// независимо от направления первичного: без детерминированного tie-break
// страницы невоспроизводимы при дублях первичного ключа (комментарии в
// одну миллисекунду, равные лайки).
func (sp sortSpec) sortStage() bson.D {
	return bson.D{{Key: "$sort", Value: bson.D{
		{Key: sp.field, Value: sp.dir},
		{Key: "_id", Value: 1},
	}}}
}

// rangePredicate строит keyset-предикат «строго дальше курсора»:
//
//	(field строго за cursor.sortValue по направлению) OR
//	(field == cursor.sortValue AND _id > cursor.tieBreak)
//
// Оператор первичного поля — $gt для asc и $lt для desc; tie-break по _id
// всегда $gt, потому что вторичная сортировка всегда по возрастанию, а
// идентификаторы монотонно растут при создании. Seek-пагинация вместо
// offset/skip: стоимость skip линейна по глубине, а конкурентные вставки
// перед skip-курсором сдвигают страницы (дубли/пропуски).
func (sp sortSpec) rangePredicate(cur *pageCursor) bson.D {
	if cur == nil {
		return nil
	}

	op := "$gt"
	if sp.dir < 0 {
		op = "$lt"
	}

	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: sp.field, Value: bson.D{{Key: op, Value: cur.sortValue}}}},
		bson.D{
			{Key: sp.field, Value: cur.sortValue},
			{Key: "_id", Value: bson.D{{Key: "$gt", Value: cur.tieBreak}}},
		},
	}}}
}

// valueOf возвращает значение поля сортировки последней удержанной записи —
// сырьё для следующего курсора.
func (sp sortSpec) valueOf(row commentRow) any {
	switch sp.key {
	case models.SortKeyUpdatedAt:
		return row.UpdatedAt.UTC()
	case models.SortKeyLikes:
		return row.LikesCount
	case models.SortKeyStatus:
		return row.Status
	default:
		return row.CreatedAt.UTC()
	}
}
