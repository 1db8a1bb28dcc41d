package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// Планировщик enrichment-джойнов. Цепочка хопов описана данными, а не
// вложенными вызовами: добавление четвёртого хопа — это ещё одна строка
// в authorChain, а не новый код.

// joinStep — один хоп цепочки: (локальное поле -> коллекция -> внешнее поле).
type joinStep struct {
	from         string
	localField   string
	foreignField string
	as           string
}

// authorChain — три последовательных зависимых джойна:
// комментарий -> автор -> аватар-ассет -> файл ассета.
// Каждый хоп опционален: отсутствие на любом шаге даёт null-аватар, не ошибку.
var authorChain = []joinStep{
	{from: authorsCollection, localField: "author_id", foreignField: "_id", as: "author"},
	{from: assetsCollection, localField: "author.avatar_asset_id", foreignField: "_id", as: "avatar_asset"},
	{from: assetFilesCollection, localField: "avatar_asset.file_id", foreignField: "_id", as: "avatar_file"},
}

// lookupStages разворачивает декларативную цепочку в пары $lookup + $unwind.
// preserveNullAndEmptyArrays сохраняет запись при непройденном хопе.
func lookupStages(chain []joinStep) []bson.D {
	stages := make([]bson.D, 0, len(chain)*2)

	for _, st := range chain {
		stages = append(stages, bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: st.from},
			{Key: "localField", Value: st.localField},
			{Key: "foreignField", Value: st.foreignField},
			{Key: "as", Value: st.as},
		}}})
		stages = append(stages, bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + st.as},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}})
	}

	return stages
}

// derivedFieldsStage материализует производные поля до их использования в
// фильтрах и сортировке:
//   - likes_count — мощность массива лайк-записей (отсутствие массива = 0);
//   - reply_count — stored-счётчик прямых детей (отсутствие = 0).
func derivedFieldsStage() bson.D {
	return bson.D{{Key: "$addFields", Value: bson.D{
		{Key: likesCountField, Value: bson.D{
			{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$likes", bson.A{}}}}},
		}},
		{Key: replyCountField, Value: bson.D{
			{Key: "$ifNull", Value: bson.A{"$replies_count", 0}},
		}},
	}}}
}

// avatarStage схлопывает трёххоповую цепочку в плоский avatar_url;
// null, если любой хоп не разрешился.
func avatarStage() bson.D {
	return bson.D{{Key: "$addFields", Value: bson.D{
		{Key: "avatar_url", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$avatar_file.public_url", nil}}}},
	}}}
}

// listPipeline собирает конвейер одной выдачи. Порядок стадий важен:
//  1. область + пред-джойновые фильтры (ложатся на индекс);
//  2. производные поля, затем фильтры по ним вместе с keyset-предикатом;
//  3. цепочка джойнов и плоский avatar_url;
//  4. пост-джойновый фильтр по имени автора;
//  5. сортировка с tie-break и лимит pageSize+1.
func listPipeline(scopeMatch, preMatch, derivedMatch, authorMatch bson.D, sp sortSpec, limit int64) mongodriver.Pipeline {
	pipe := mongodriver.Pipeline{
		bson.D{{Key: "$match", Value: append(append(bson.D{}, scopeMatch...), preMatch...)}},
		derivedFieldsStage(),
	}

	if len(derivedMatch) > 0 {
		pipe = append(pipe, bson.D{{Key: "$match", Value: derivedMatch}})
	}

	pipe = append(pipe, lookupStages(authorChain)...)
	pipe = append(pipe, avatarStage())

	if len(authorMatch) > 0 {
		pipe = append(pipe, bson.D{{Key: "$match", Value: authorMatch}})
	}

	pipe = append(pipe, sp.sortStage())
	pipe = append(pipe, bson.D{{Key: "$limit", Value: limit}})

	return pipe
}
