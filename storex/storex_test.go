package storex

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]string{"a", "b"}, 2, 2, 5)
	assert.Equal(t, 3, p.Page.Pages)
	assert.True(t, p.Page.HasNext)
	assert.True(t, p.Page.HasPrevious)
	assert.False(t, p.Empty)

	empty := NewPaginated[string](nil, 1, 25, 0)
	assert.NotNil(t, empty.Data)
	assert.True(t, empty.Empty)
	assert.False(t, empty.Page.HasNext)
	assert.False(t, empty.Page.HasPrevious)
}

func TestPaginationOptions_Normalize(t *testing.T) {
	tests := []struct {
		in         PaginationOptions
		page, size int
		offset     int
	}{
		{PaginationOptions{}, 1, DefaultPageSize, 0},
		{PaginationOptions{Page: 3, PageSize: 10}, 3, 10, 20},
		{PaginationOptions{Page: -1, PageSize: 1000}, 1, MaxPageSize, 0},
	}
	for _, tt := range tests {
		n := tt.in.Normalize()
		assert.Equal(t, tt.page, n.Page)
		assert.Equal(t, tt.size, n.PageSize)
		assert.Equal(t, tt.offset, tt.in.Offset())
	}
}

func TestMapSQLError(t *testing.T) {
	assert.Nil(t, MapSQLError(nil))
	assert.True(t, IsRecordNotFound(MapSQLError(fmt.Errorf("get: %w", sql.ErrNoRows))))
	assert.True(t, IsConflict(MapSQLError(&pq.Error{Code: "23505"})))
	assert.True(t, IsConnectionFailed(MapSQLError(&pq.Error{Code: "08006"})))

	err := MapSQLError(errors.New("syntax"))
	assert.ErrorContains(t, err, "syntax")
	assert.False(t, IsRecordNotFound(err))
}

func TestMapMongoError(t *testing.T) {
	assert.Nil(t, MapMongoError(nil))
	assert.True(t, IsRecordNotFound(MapMongoError(mongo.ErrNoDocuments)))

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "dup"}}}
	assert.True(t, IsConflict(MapMongoError(dup)))
}
