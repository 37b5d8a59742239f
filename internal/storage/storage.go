package storage

import (
	"context"

	"msgbus/internal/model"
)

type Store interface {
	UpsertOrder(ctx context.Context, o model.Order) error
	LoadOrder(ctx context.Context, uid string) (model.Order, bool, error)
	LoadAllRaw(ctx context.Context) ([]model.Order, error)
	Close()
}
