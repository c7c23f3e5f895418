package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddMovieValidation(t *testing.T) {
	// Validation runs before any repository call, so a zero-value
	// handler is enough to exercise the rejected bodies.
	h := NewMovieHandler(nil)

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"runtimeMin":120}`},
		{"blank name", `{"movieName":"   ","runtimeMin":120}`},
		{"negative runtime", `{"movieName":"Dune","runtimeMin":-5}`},
		{"malformed json", `{"movieName":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := doJSON(h.AddMovie, http.MethodPost, "/api/movies/addmovie", tc.body, "", "", nil)
			require.NoError(t, err)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
