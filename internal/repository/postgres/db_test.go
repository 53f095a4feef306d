package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"cabbooking/internal/repository"
)

func TestMapError(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, repository.ErrNotFound},
		{"unique violation", &pq.Error{Code: "23505"}, repository.ErrDuplicate},
		{"malformed uuid", &pq.Error{Code: "22P02"}, repository.ErrNotFound},
		{"wrapped malformed uuid", fmt.Errorf("query: %w", &pq.Error{Code: "22P02"}), repository.ErrNotFound},
		{"other driver error", boom, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}
