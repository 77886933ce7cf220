package diary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func clampConfig() *Config {
	return &Config{DefaultPageSize: 20, MaxPageSize: 100, SearchLimit: 50}
}

func TestClampPage(t *testing.T) {
	svc := NewService(clampConfig(), nil, NewEntryCache(nil, 0))

	tests := []struct {
		name       string
		page, size int
		want       Page
	}{
		{"defaults", 0, 0, Page{Number: 1, Size: 20}},
		{"negative page", -3, 10, Page{Number: 1, Size: 10}},
		{"negative size", 2, -1, Page{Number: 2, Size: 20}},
		{"within bounds", 3, 40, Page{Number: 3, Size: 40}},
		{"size capped", 1, 500, Page{Number: 1, Size: 100}},
		{"size at cap", 1, 100, Page{Number: 1, Size: 100}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, svc.ClampPage(tc.page, tc.size))
		})
	}
}
