package altfixture

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionsReturnsAllowHeader(t *testing.T) {
	srv := httptest.NewServer(New().Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/notes/1", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NotEmpty(t, resp.Header.Get("Allow"))
}

func TestHeadMatchesGetStatus(t *testing.T) {
	srv := httptest.NewServer(New().Router())
	defer srv.Close()

	head, err := http.Head(srv.URL + "/notes/1")
	require.NoError(t, err)
	defer head.Body.Close()

	get, err := http.Get(srv.URL + "/notes/1")
	require.NoError(t, err)
	defer get.Body.Close()

	require.Equal(t, get.StatusCode, head.StatusCode)
}
