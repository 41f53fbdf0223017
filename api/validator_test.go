package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatorEmail(t *testing.T) {
	cases := []struct {
		email string
		valid bool
	}{
		{"alice@example.com", true},
		{"a.b+c@sub.example.co", true},
		{"", false},
		{"not-an-email", false},
		{"@example.com", false},
	}
	for _, c := range cases {
		v := newValidator()
		v.checkEmail(c.email)
		require.Equal(t, !c.valid, v.hasErrors(), "email %q", c.email)
	}
}

func TestValidatorPassword(t *testing.T) {
	cases := []struct {
		password string
		valid    bool
	}{
		{"secret123", true},
		{"", false},
		{"short", false},
	}
	for _, c := range cases {
		v := newValidator()
		v.checkPassword(c.password)
		require.Equal(t, !c.valid, v.hasErrors(), "password %q", c.password)
	}
}

func TestValidatorTitle(t *testing.T) {
	v := newValidator()
	v.checkTitle("Buy milk")
	require.False(t, v.hasErrors())

	v = newValidator()
	v.checkTitle("")
	require.True(t, v.hasErrors())
	require.Contains(t, v.errors, "title")
}

func TestValidatorFirstFailureWins(t *testing.T) {
	v := newValidator()
	v.checkCond(false, "field", "first")
	v.checkCond(false, "field", "second")
	require.Equal(t, "first", v.errors["field"])
}
