package handlers

import (
	"time"

	"github.com/atlasguides/guide-admin/comments-service/internal/models"
)

// DTO-слой: стабильные версионированные формы для интерфейса модерации.
// Имена полей — camelCase, временные метки — ISO-8601 строки.

// AuthorDTO — превью автора в узле дерева.
type AuthorDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
	Role      string  `json:"role"`
}

// CommentNode — плоский узел дерева комментариев. Children всегда пуст:
// дети подгружаются ленивым отдельным запросом с parentId = id узла.
type CommentNode struct {
	ID         string        `json:"id"`
	ArticleID  string        `json:"articleId"`
	ParentID   *string       `json:"parentId"`
	Author     AuthorDTO     `json:"author"`
	Content    string        `json:"content"`
	Likes      int64         `json:"likes"`
	Status     string        `json:"status"`
	ReplyCount int64         `json:"replyCount"`
	CreatedAt  string        `json:"createdAt"`
	UpdatedAt  string        `json:"updatedAt"`
	Children   []CommentNode `json:"children,omitempty"`
}

// PaginationMeta — эхо курсора запроса и курсор следующей страницы.
// NextCursor != nil тогда и только тогда, когда HasNextPage.
type PaginationMeta struct {
	Cursor      string  `json:"cursor"`
	NextCursor  *string `json:"nextCursor"`
	PageSize    int32   `json:"pageSize"`
	HasNextPage bool    `json:"hasNextPage"`
}

// SortMeta — фактически применённая сортировка (после fail-open нормализации).
type SortMeta struct {
	Key string `json:"key"`
	Dir string `json:"dir"`
}

// FiltersMeta — фактически применённые фильтры.
type FiltersMeta struct {
	Status      string `json:"status"`
	MinLikes    *int64 `json:"minLikes"`
	HasReplies  *bool  `json:"hasReplies"`
	AuthorName  string `json:"authorName,omitempty"`
	SearchQuery string `json:"searchQuery,omitempty"`
}

// ScopeMeta — область запроса. DepthMax зарезервирован под будущий режим
// обхода с ограничением глубины; сегодня всегда null.
type ScopeMeta struct {
	ArticleID *string `json:"articleId"`
	ParentID  *string `json:"parentId"`
	DepthMax  *int32  `json:"depthMax"`
}

// ListMeta — служебный блок ответа списка.
type ListMeta struct {
	Pagination PaginationMeta `json:"pagination"`
	Sort       SortMeta       `json:"sort"`
	Filters    FiltersMeta    `json:"filtersApplied"`
	Scope      ScopeMeta      `json:"scope"`
}

// ListCommentsResponse — корневой объект ответа обоих списковых эндпойнтов.
type ListCommentsResponse struct {
	Nodes []CommentNode `json:"nodes"`
	Meta  ListMeta      `json:"meta"`
}

// toNode — DTO-трансформер: обогащённый комментарий -> узел дерева.
// Если автор не разрешился (удалён/осиротевшая ссылка), узел не пропадает:
// подставляется sentinel-автор с нейтральной ролью.
func toNode(c models.Comment) CommentNode {
	node := CommentNode{
		ID:         c.ID,
		ArticleID:  c.ArticleID,
		Content:    c.Content,
		Likes:      c.Likes,
		Status:     string(c.Status),
		ReplyCount: c.ReplyCount,
		CreatedAt:  c.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}

	if c.ParentID != "" {
		parent := c.ParentID
		node.ParentID = &parent
	}

	if c.Author.Resolved {
		node.Author = AuthorDTO{
			ID:        c.Author.ID.String(),
			Name:      c.Author.Name,
			AvatarURL: c.Author.AvatarURL,
			Role:      string(c.Author.Role),
		}
	} else {
		node.Author = AuthorDTO{
			ID:   c.Author.ID.String(),
			Name: "Unknown",
			Role: string(models.RoleUser),
		}
	}

	return node
}

func toNodes(items []models.Comment) []CommentNode {
	nodes := make([]CommentNode, 0, len(items))
	for _, c := range items {
		nodes = append(nodes, toNode(c))
	}
	return nodes
}

// toListResponse собирает ответ списка с эхом эффективных параметров.
func toListResponse(articleID, parentID, requestCursor string, page *models.Page) ListCommentsResponse {
	resp := ListCommentsResponse{
		Nodes: toNodes(page.Items),
		Meta: ListMeta{
			Pagination: PaginationMeta{
				Cursor:      requestCursor,
				PageSize:    page.Applied.PageSize,
				HasNextPage: page.HasNextPage,
			},
			Sort: SortMeta{
				Key: page.Applied.SortKey,
				Dir: page.Applied.SortDir,
			},
			Filters: FiltersMeta{
				Status:      string(page.Applied.Status),
				MinLikes:    page.Applied.MinLikes,
				HasReplies:  page.Applied.HasReplies,
				AuthorName:  page.Applied.AuthorName,
				SearchQuery: page.Applied.SearchQuery,
			},
		},
	}

	if page.HasNextPage {
		next := page.NextCursor
		resp.Meta.Pagination.NextCursor = &next
	}

	if articleID != "" {
		a := articleID
		resp.Meta.Scope.ArticleID = &a
	}
	if parentID != "" {
		p := parentID
		resp.Meta.Scope.ParentID = &p
	}

	return resp
}
