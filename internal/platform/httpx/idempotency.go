package httpx

import (
	"net/http"

	"github.com/odyssey-erp/console/internal/shared"
)

// Idempotent runs fn once per Idempotency-Key header value and module. The key
// is released again when fn fails so the client may retry. Requests without
// the header, or without a store, run fn directly.
func Idempotent(r *http.Request, store shared.IdempotencyChecker, module string, fn func() error) error {
	key := r.Header.Get(shared.IdempotencyHeader)
	if key == "" || store == nil {
		return fn()
	}
	ctx := r.Context()
	if err := store.CheckAndInsert(ctx, key, module); err != nil {
		return err
	}
	if err := fn(); err != nil {
		_ = store.Delete(ctx, key, module)
		return err
	}
	return nil
}
