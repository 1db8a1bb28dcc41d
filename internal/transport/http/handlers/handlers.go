package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atlasguides/guide-admin/comments-service/internal/models"
	"github.com/atlasguides/guide-admin/comments-service/internal/service"
)

// CommentsService — контракт сервисного слоя, нужный HTTP-хендлерам.
type CommentsService interface {
	ListComments(ctx context.Context, in service.ListCommentsInput) (*models.Page, error)
	CommentByID(ctx context.Context, id string) (*models.Comment, error)
}

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	Service CommentsService
}

func New(s CommentsService) *Handlers {
	return &Handlers{Service: s}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
