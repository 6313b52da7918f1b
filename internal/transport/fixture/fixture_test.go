package fixture

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListReturnsSeededWidgets(t *testing.T) {
	srv := httptest.NewServer(New().Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/widgets")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteTwiceReturnsNoContentThenNotFound(t *testing.T) {
	srv := httptest.NewServer(New().Router())
	defer srv.Close()

	client := &http.Client{}
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/widgets/1", nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	req2, _ := http.NewRequest(http.MethodDelete, srv.URL+"/widgets/1", nil)
	resp2, err := client.Do(req2)
	require.NoError(t, err)
	resp2.Body.Close()
	require.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestGetMissingWidgetReturns404(t *testing.T) {
	srv := httptest.NewServer(New().Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/widgets/999")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
