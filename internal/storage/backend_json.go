package storage

import (
	"context"
	"encoding/json"
	"errors"

	"replybot/datastore"
)

type jsonBackend struct {
	ds *datastore.DataStore
}

// NewJSONBackend stores documents in a single JSON file. Every write is
// flushed before it returns.
func NewJSONBackend(filePath string) (Backend, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &jsonBackend{ds: ds}, nil
}

func (b *jsonBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok, err := b.ds.Get(key)
	return value, ok, mapClosed(err)
}

func (b *jsonBackend) Set(_ context.Context, key string, value []byte) error {
	if err := b.ds.Set(key, json.RawMessage(value)); err != nil {
		return mapClosed(err)
	}
	return mapClosed(b.ds.Flush())
}

func (b *jsonBackend) Delete(_ context.Context, key string) error {
	if err := b.ds.Delete(key); err != nil {
		return mapClosed(err)
	}
	return mapClosed(b.ds.Flush())
}

func (b *jsonBackend) Close() error {
	return b.ds.Close()
}

func mapClosed(err error) error {
	if errors.Is(err, datastore.ErrClosed) {
		return ErrClosed
	}
	return err
}
