package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"trading-journal-go/internal/models"
	"trading-journal-go/internal/query"

	"gorm.io/gorm"
)

// ownedPtr is a pointer to a model that belongs to one user.
type ownedPtr[T any] interface {
	*T
	models.Owned
}

// loadOwned fetches the record with id and checks it belongs to userID.
// A missing record is NotFound; someone else's record is NotAuthorized.
func loadOwned[T any, P ownedPtr[T]](ctx context.Context, db *gorm.DB, resource string, action Action, id, userID string) (P, error) {
	var rec T
	err := db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound(resource, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", strings.ToLower(resource), id, err)
	}

	p := P(&rec)
	if p.OwnerID() != userID {
		return nil, NotAuthorized(action, strings.ToLower(resource))
	}
	return p, nil
}

// Page is one page of a list query.
type Page[T any] struct {
	Items      []T
	Total      int64
	Pagination query.Pagination
	// Data is Items trimmed to the selected fields, ready to encode.
	Data any
}

// Count is the number of records on the page.
func (p *Page[T]) Count() int { return len(p.Items) }

// list runs a filtered, sorted, paginated query over the caller's records of T.
func list[T any](ctx context.Context, db *gorm.DB, schema query.Schema, userID string, values url.Values) (*Page[T], error) {
	q, err := query.Parse(values, schema)
	if err != nil {
		return nil, BadQuery(err)
	}

	owned := func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", userID)
	}

	var total int64
	if err := db.WithContext(ctx).Model(new(T)).Scopes(owned, q.Filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	items := []T{}
	if err := db.WithContext(ctx).Scopes(owned, q.Filter, q.Order, q.Paginate, q.Project).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	data, err := q.ProjectRecords(items)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return &Page[T]{Items: items, Total: total, Pagination: q.Pagination(total), Data: data}, nil
}

// decodePatch merges a JSON document over dst.
func decodePatch(patch []byte, dst any) error {
	if err := json.Unmarshal(patch, dst); err != nil {
		return BadRequest("Invalid request body: " + err.Error())
	}
	return nil
}
