package utils

import (
	"context"

	"ccm-system/pkg/contextkeys"
	apperrors "ccm-system/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	id, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrUnauthorized
	}
	return id, nil
}

func GetUsernameFromCtx(ctx context.Context) (string, error) {
	name, ok := ctx.Value(contextkeys.UsernameKey).(string)
	if !ok || name == "" {
		return "", apperrors.ErrUnauthorized
	}
	return name, nil
}
