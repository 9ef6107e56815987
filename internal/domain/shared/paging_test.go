package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"zero value", PageRequest{}, PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{"oversized page", PageRequest{Page: 3, PageSize: 500}, PageRequest{Page: 3, PageSize: MaxPageSize}},
		{"keeps sort", PageRequest{Page: 2, PageSize: 10, SortBy: "code", SortDesc: true},
			PageRequest{Page: 2, PageSize: 10, SortBy: "code", SortDesc: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestPageRequest_Offset(t *testing.T) {
	assert.Equal(t, 0, PageRequest{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, PageRequest{Page: 3, PageSize: 20}.Offset())
	assert.Equal(t, 0, PageRequest{}.Offset())
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, PageCount(0, 10))
	assert.Equal(t, 1, PageCount(9, 10))
	assert.Equal(t, 10, PageCount(100, 10))
	assert.Equal(t, 11, PageCount(101, 10))
	assert.Equal(t, 0, PageCount(5, 0))
}
