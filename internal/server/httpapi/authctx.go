package httpapi

import (
	"context"

	"github.com/pairpad/pairpad/internal/model"
)

type ctxKey string

const userKey ctxKey = "pairpad.user"

// WithUser stores the authenticated identity in context.
func WithUser(ctx context.Context, u model.UserInfo) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromCtx fetches the authenticated identity from context.
func UserFromCtx(ctx context.Context) (model.UserInfo, bool) {
	v := ctx.Value(userKey)
	if v == nil {
		return model.UserInfo{}, false
	}
	u, ok := v.(model.UserInfo)
	return u, ok
}
