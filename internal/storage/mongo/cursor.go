package mongo

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Курсор keyset-пагинации: тегированная пара «значение поля сортировки на
// последней записи предыдущей страницы + её _id как tie-break». Тег типа
// зашит в токен, поэтому декодирование не зависит от текущего ключа
// сортировки. Смена ключа/направления между запросами при переиспользовании
// старого курсора даёт корректно определённое, но бессмысленное поведение —
// движок такой рассинхрон не детектирует (известное ограничение).
//
// Теги значений: t — время (unix-наносекунды), i — целое, s — строка.

type pageCursor struct {
	sortValue any // time.Time | int64 | string
	tieBreak  primitive.ObjectID
}

// encodeCursor кодирует пару (sortValue, _id) в непрозрачный токен для клиента.
// Неподдерживаемый тип значения возвращает пустой токен (страница без продолжения).
func encodeCursor(sortValue any, id primitive.ObjectID) string {
	var raw string

	switch v := sortValue.(type) {
	case time.Time:
		raw = fmt.Sprintf("t|%d|%s", v.UTC().UnixNano(), id.Hex())
	case int64:
		raw = fmt.Sprintf("i|%d|%s", v, id.Hex())
	case string:
		raw = fmt.Sprintf("s|%s|%s", url.QueryEscape(v), id.Hex())
	default:
		return ""
	}

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor декодирует токен обратно в пару ключей.
// Fail-open: любой битый/подделанный/устаревший токен — это nil, то есть
// «начать с начала выдачи», а не ошибка запроса. Потеря позиции скролла в
// модерации неприятна, но восстановима; жёсткий отказ — нет.
func decodeCursor(token string) *pageCursor {
	res, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return nil
	}

	parts := strings.SplitN(string(res), "|", 3)
	if len(parts) != 3 {
		return nil
	}

	oid, err := primitive.ObjectIDFromHex(parts[2])
	if err != nil {
		return nil
	}

	var value any
	switch parts[0] {
	case "t":
		nanos, err := parseInt64(parts[1])
		if err != nil {
			return nil
		}
		value = time.Unix(0, nanos).UTC()
	case "i":
		n, err := parseInt64(parts[1])
		if err != nil {
			return nil
		}
		value = n
	case "s":
		s, err := url.QueryUnescape(parts[1])
		if err != nil {
			return nil
		}
		value = s
	default:
		return nil
	}

	return &pageCursor{sortValue: value, tieBreak: oid}
}

// parseInt64 — локальная маленькая обёртка без импорта strconv везде.
func parseInt64(s string) (int64, error) {
	var x int64
	_, err := fmt.Sscan(s, &x)

	return x, err
}
