package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
)

func TestPageRequest_DefaultPage(t *testing.T) {
	cases := []struct {
		name string
		in   dto.PageRequest
		want dto.PageRequest
	}{
		{"vacío", dto.PageRequest{}, dto.PageRequest{Limit: dto.DefaultPageLimit}},
		{"negativos", dto.PageRequest{Limit: -5, Offset: -1}, dto.PageRequest{Limit: dto.DefaultPageLimit}},
		{"sobre el máximo", dto.PageRequest{Limit: 5000, Offset: 40}, dto.PageRequest{Limit: dto.MaxPageLimit, Offset: 40}},
		{"dentro de rango", dto.PageRequest{Limit: 30, Offset: 10}, dto.PageRequest{Limit: 30, Offset: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.in
			p.DefaultPage()
			assert.Equal(t, tc.want, p)
		})
	}
}
