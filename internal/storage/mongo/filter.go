package mongo

import (
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/atlasguides/guide-admin/comments-service/internal/models"
)

// Компилятор фильтров: нормализованный пользовательский запрос -> bson-предикаты.
// Термы разнесены по трём группам в порядке исполнения конвейера:
//  1. compileScope/compilePreMatch — до производных полей (могут лечь на индекс);
//  2. compileDerivedMatch — после $addFields с likes_count/reply_count;
//  3. compileAuthorMatch — после джойна авторов (поле появляется только там).

// compileScope — предикат области запроса: статья и корень/родитель.
// parent_id == null помечает корневой комментарий.
func compileScope(scope models.Scope) (bson.D, error) {
	f := bson.D{}

	if scope.ArticleID != "" {
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(scope.ArticleID))
		if err != nil {
			return nil, fmt.Errorf("invalid article id: %w", err)
		}
		f = append(f, bson.E{Key: "article_id", Value: oid})
	}

	if scope.IsRoot() {
		f = append(f, bson.E{Key: "parent_id", Value: nil})
	} else {
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(scope.ParentID))
		if err != nil {
			return nil, fmt.Errorf("invalid parent id: %w", err)
		}
		f = append(f, bson.E{Key: "parent_id", Value: oid})
	}

	return f, nil
}

// compilePreMatch — термы, вычислимые до джойнов и производных полей.
// Тумбстоуны исключаются всегда: opt-in пути для удалённых записей нет,
// это фиксированная политика выдачи.
func compilePreMatch(q models.ListQuery) bson.D {
	f := bson.D{{Key: "deleted_at", Value: nil}}

	// any не даёт терма; конкретный статус — равенство.
	if q.Status.Valid() {
		f = append(f, bson.E{Key: "status", Value: string(q.Status)})
	}

	if s := strings.TrimSpace(q.SearchQuery); s != "" {
		f = append(f, bson.E{Key: "content", Value: substringRegex(s)})
	}

	return f
}

// compileDerivedMatch — термы по производным полям. Обязан исполняться после
// материализации likes_count/reply_count: порог minLikes считается по той же
// деривации, что и поле likes в выдаче, иначе это баг корректности.
// Keyset-предикат курсора включён сюда же — поле сортировки может быть
// производным (likes_count).
func compileDerivedMatch(q models.ListQuery, rangePred bson.D) bson.D {
	f := bson.D{}

	if q.MinLikes != nil {
		f = append(f, bson.E{Key: likesCountField, Value: bson.D{{Key: "$gte", Value: *q.MinLikes}}})
	}

	// tri-state: true — есть ответы; false — ответов нет (отсутствие
	// reply_count уже приведено к нулю); nil — без ограничения.
	if q.HasReplies != nil {
		if *q.HasReplies {
			f = append(f, bson.E{Key: replyCountField, Value: bson.D{{Key: "$gt", Value: 0}}})
		} else {
			f = append(f, bson.E{Key: replyCountField, Value: 0})
		}
	}

	if rangePred != nil {
		f = append(f, rangePred...)
	}

	return f
}

// compileAuthorMatch — пост-джойн фильтр по имени автора: до $lookup такого
// поля не существует, поэтому терм компилируется максимально поздно.
func compileAuthorMatch(q models.ListQuery) bson.D {
	s := strings.TrimSpace(q.AuthorName)
	if s == "" {
		return nil
	}

	return bson.D{{Key: "author.name", Value: substringRegex(s)}}
}

// substringRegex — регистронезависимый substring-матч с экранированием
// пользовательского ввода.
func substringRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
