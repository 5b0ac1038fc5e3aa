package trajectory

import "context"

// NameLocker serializes findOrCreateEntity calls racing on the same
// normalizedName across goroutines and, when backed by Redis, across
// process instances. A nil NameLocker is valid: the engine then relies on
// the Postgres unique index on entity.normalized_name alone (insert, catch
// the unique violation, re-select) to make find-or-create safe.
type NameLocker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}
