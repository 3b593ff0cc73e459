// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCookies(t *testing.T) {
	tests := []struct {
		name   string
		header string
		expect map[string]string
	}{
		{
			name:   "single cookie",
			header: "manzil_client_session=abc123",
			expect: map[string]string{"manzil_client_session": "abc123"},
		},
		{
			name:   "multiple cookies",
			header: "a=1; b=2; c=3",
			expect: map[string]string{"a": "1", "b": "2", "c": "3"},
		},
		{
			name:   "value containing equals signs stays intact",
			header: "manzil_client_session=eyJhbGciOiJIUzI1NiJ9.eyJpZCI6MX0=.sig==",
			expect: map[string]string{"manzil_client_session": "eyJhbGciOiJIUzI1NiJ9.eyJpZCI6MX0=.sig=="},
		},
		{
			name:   "whitespace around pairs is trimmed",
			header: "  a=1 ;  b=2  ",
			expect: map[string]string{"a": "1", "b": "2"},
		},
		{
			name:   "whitespace around name and value is trimmed",
			header: "a = 1; b =2 ; c= 3",
			expect: map[string]string{"a": "1", "b": "2", "c": "3"},
		},
		{
			name:   "pair without equals is skipped",
			header: "a=1; garbage; b=2",
			expect: map[string]string{"a": "1", "b": "2"},
		},
		{
			name:   "empty value is kept",
			header: "a=; b=2",
			expect: map[string]string{"a": "", "b": "2"},
		},
		{
			name:   "empty header",
			header: "",
			expect: map[string]string{},
		},
		{
			name:   "only separators",
			header: "; ; ;",
			expect: map[string]string{},
		},
		{
			name:   "both session cookies present",
			header: "manzil_admin_session=admintoken; manzil_client_session=clienttoken",
			expect: map[string]string{
				"manzil_admin_session":  "admintoken",
				"manzil_client_session": "clienttoken",
			},
		},
		{
			name:   "duplicate name keeps the last value",
			header: "a=1; a=2",
			expect: map[string]string{"a": "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCookies(tt.header)
			assert.Equal(t, tt.expect, got)
		})
	}
}
