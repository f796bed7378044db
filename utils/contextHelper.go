package utils

import (
	"context"

	"github.com/granformato/pedidos_backend/appctx"
)

var (
	ContextKeyClienteEmail  = appctx.ContextKeyClienteEmail
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyWorkerId      = appctx.ContextKeyWorkerId
)

func GetClienteEmailFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyClienteEmail)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetWorkerIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyWorkerId)
}

func SetClienteEmailInContext(ctx context.Context, email string) context.Context {
	return appctx.Set(ctx, ContextKeyClienteEmail, email)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetWorkerIdInContext(ctx context.Context, workerId string) context.Context {
	return appctx.Set(ctx, ContextKeyWorkerId, workerId)
}
