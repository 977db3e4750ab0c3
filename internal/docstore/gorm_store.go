package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/comoestou/internal/logger"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type documentRow struct {
	Collection string         `gorm:"column:collection;primaryKey"`
	ID         string         `gorm:"column:id;primaryKey"`
	Data       datatypes.JSON `gorm:"column:data;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;not null"`
}

func (documentRow) TableName() string {
	return "documents"
}

// GormStore keeps every document in one table keyed by (collection, id) with
// the fields as JSON. Mutations are announced on the change feed after commit.
type GormStore struct {
	database *gorm.DB
	feed     ChangeFeed
	queries  singleflight.Group
	now      func() time.Time
}

func NewGormStore(database *gorm.DB, feed ChangeFeed) *GormStore {
	if feed == nil {
		feed = NewMemoryChangeFeed()
	}
	return &GormStore{
		database: database,
		feed:     feed,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (store *GormStore) Create(ctx context.Context, collection string, fields map[string]any) (Document, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return Document{}, err
	}
	now := store.now()
	row, err := newDocumentRow(collection, uuid.NewString(), fields, now)
	if err != nil {
		return Document{}, err
	}
	if err := store.database.WithContext(ctx).Create(&row).Error; err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	store.announce(ctx, row.Collection, row.ID, ChangeCreated)
	return row.document()
}

func (store *GormStore) Set(ctx context.Context, documentPath string, fields map[string]any) (Document, error) {
	collection, id, err := SplitDocumentPath(documentPath)
	if err != nil {
		return Document{}, err
	}
	now := store.now()
	row, err := newDocumentRow(collection, id, fields, now)
	if err != nil {
		return Document{}, err
	}

	kind := ChangeCreated
	err = store.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := documentRow{}
		result := tx.Where("collection = ? AND id = ?", collection, id).Limit(1).Find(&existing)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return tx.Create(&row).Error
		}
		kind = ChangeUpdated
		row.CreatedAt = existing.CreatedAt
		return tx.Model(&documentRow{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{"data": row.Data, "updated_at": row.UpdatedAt}).Error
	})
	if err != nil {
		return Document{}, fmt.Errorf("set document: %w", err)
	}
	store.announce(ctx, collection, id, kind)
	return row.document()
}

func (store *GormStore) Get(ctx context.Context, documentPath string) (Document, error) {
	collection, id, err := SplitDocumentPath(documentPath)
	if err != nil {
		return Document{}, err
	}
	row := documentRow{}
	if err := store.database.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return row.document()
}

func (store *GormStore) Update(ctx context.Context, documentPath string, fields map[string]any) (Document, error) {
	collection, id, err := SplitDocumentPath(documentPath)
	if err != nil {
		return Document{}, err
	}
	now := store.now()

	row := documentRow{}
	err = store.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ? AND id = ?", collection, id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		merged, err := decodeFields(row.Data)
		if err != nil {
			return err
		}
		for key, value := range resolveServerTimestamps(fields, now) {
			merged[key] = value
		}
		encoded, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode fields: %w", err)
		}
		row.Data = datatypes.JSON(encoded)
		row.UpdatedAt = now
		return tx.Model(&documentRow{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{"data": row.Data, "updated_at": now}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("update document: %w", err)
	}
	store.announce(ctx, collection, id, ChangeUpdated)
	return row.document()
}

func (store *GormStore) Delete(ctx context.Context, documentPath string) error {
	collection, id, err := SplitDocumentPath(documentPath)
	if err != nil {
		return err
	}
	result := store.database.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentRow{})
	if result.Error != nil {
		return fmt.Errorf("delete document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	store.announce(ctx, collection, id, ChangeDeleted)
	return nil
}

func (store *GormStore) List(ctx context.Context, collection string, query Query) ([]Document, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	statement := store.database.WithContext(ctx).Model(&documentRow{}).Where("collection = ?", collection)
	if query.Where != nil {
		statement = statement.Where(datatypes.JSONQuery("data").Equals(query.Where.Value, query.Where.Field))
	}

	direction := "ASC"
	if query.Direction == Desc {
		direction = "DESC"
	}
	if query.OrderBy != "" {
		statement = statement.Order(jsonFieldExpression(store.database, query.OrderBy) + " " + direction)
	}
	statement = statement.Order("created_at " + direction).Order("id " + direction)
	if query.Limit > 0 {
		statement = statement.Limit(query.Limit)
	}

	rows := make([]documentRow, 0)
	if err := statement.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// listShared coalesces identical re-queries triggered by the same change
// event, so N subscribers to one collection cost one round trip per write.
func (store *GormStore) listShared(ctx context.Context, collection string, query Query, trigger string) ([]Document, error) {
	key := collection + "|" + query.key() + "|" + trigger
	value, err, _ := store.queries.Do(key, func() (any, error) {
		// Other subscribers may be waiting on this result.
		return store.List(context.WithoutCancel(ctx), collection, query)
	})
	if err != nil {
		return nil, err
	}
	shared := value.([]Document)
	docs := make([]Document, len(shared))
	copy(docs, shared)
	return docs, nil
}

func (store *GormStore) announce(ctx context.Context, collection string, id string, kind string) {
	event := ChangeEvent{
		ID:         uuid.NewString(),
		Collection: collection,
		DocumentID: id,
		Kind:       kind,
	}
	if err := store.feed.Publish(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("publish change event failed", "collection", collection, "id", id, "error", err)
	}
}

func jsonFieldExpression(database *gorm.DB, field string) string {
	if database.Dialector.Name() == "postgres" {
		return fmt.Sprintf("(data->>'%s')", field)
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", field)
}

func newDocumentRow(collection string, id string, fields map[string]any, now time.Time) (documentRow, error) {
	encoded, err := json.Marshal(resolveServerTimestamps(fields, now))
	if err != nil {
		return documentRow{}, fmt.Errorf("encode fields: %w", err)
	}
	return documentRow{
		Collection: collection,
		ID:         id,
		Data:       datatypes.JSON(encoded),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func resolveServerTimestamps(fields map[string]any, now time.Time) map[string]any {
	resolved := make(map[string]any, len(fields))
	for key, value := range fields {
		if _, ok := value.(serverTimestamp); ok {
			resolved[key] = now.Format(time.RFC3339Nano)
			continue
		}
		resolved[key] = value
	}
	return resolved
}

func decodeFields(data datatypes.JSON) (map[string]any, error) {
	fields := map[string]any{}
	if len(data) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}

func (row documentRow) document() (Document, error) {
	fields, err := decodeFields(row.Data)
	if err != nil {
		return Document{}, err
	}
	return Document{
		ID:         row.ID,
		Collection: row.Collection,
		Fields:     fields,
		CreateTime: row.CreatedAt,
		UpdateTime: row.UpdatedAt,
	}, nil
}
