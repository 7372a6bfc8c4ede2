package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papermill_reel_tracker/extract"
	"papermill_reel_tracker/reel"
	"papermill_reel_tracker/yield"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &reel.ValidationError{Field: "gsm", Reason: "required"}, http.StatusBadRequest},
		{"not found", &reel.NotFoundError{Kind: "reel", ID: "1"}, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("get: %w", &reel.NotFoundError{Kind: "reel", ID: "1"}), http.StatusNotFound},
		{"not computable", fmt.Errorf("%w: zero weight", yield.ErrNotComputable), http.StatusUnprocessableEntity},
		{"store", &reel.StoreError{Op: "insert reel", Err: errors.New("conn reset")}, http.StatusServiceUnavailable},
		{"extract disabled", extract.ErrDisabled, http.StatusServiceUnavailable},
		{"extract failed", &extractError{errors.New("timeout")}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusOf(tc.err))
		})
	}
}

func TestFieldOf(t *testing.T) {
	f, ok := fieldOf(fmt.Errorf("create: %w", &reel.ValidationError{Field: "weight", Reason: "x"}))
	assert.True(t, ok)
	assert.Equal(t, "weight", f)

	_, ok = fieldOf(&reel.ValidationError{Reason: "nothing to update"})
	assert.False(t, ok)
	_, ok = fieldOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestTextAcceptsStringsAndNumbers(t *testing.T) {
	var in struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"58","b":80,"c":null,"d":12.50}`), &in))
	assert.Equal(t, "58", in.A.String())
	assert.Equal(t, "80", in.B.String())
	assert.Equal(t, "", in.C.String())
	assert.Equal(t, "12.50", in.D.String())

	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &in))
	assert.Error(t, json.Unmarshal([]byte(`{"a":[1]}`), &in))
}
