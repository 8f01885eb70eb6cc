package pubchem

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, logging.NewNopLogger())
}

func TestLookupCIDs(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"IdentifierList":{"CID":[7005,12345]}}`))
	})

	cids, err := c.LookupCIDs(context.Background(), "Clc1ccccc1")
	require.NoError(t, err)
	assert.Equal(t, []int64{7005, 12345}, cids)
	assert.Equal(t, "/compound/smiles/"+url.PathEscape("Clc1ccccc1")+"/cids/JSON", gotPath)
}

func TestLookupCIDsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"Fault":{"Code":"PUGREST.NotFound"}}`, http.StatusNotFound)
	})

	cids, err := c.LookupCIDs(context.Background(), "Clc1ccccc1Cl")
	require.NoError(t, err)
	assert.Empty(t, cids)
}

func TestLookupCIDsZeroSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"IdentifierList":{"CID":[0]}}`))
	})

	cids, err := c.LookupCIDs(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Empty(t, cids)
}

func TestLookupCIDsServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	})

	_, err := c.LookupCIDs(context.Background(), "CCO")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLookupFailed))
}

func TestLookupCIDsMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := c.LookupCIDs(context.Background(), "CCO")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLookupFailed))
}

func TestLookupCIDsEmptySMILES(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", time.Second, logging.NewNopLogger())
	_, err := c.LookupCIDs(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
}
