// Package pubchem looks up PubChem compound identifiers (CIDs) through the
// PUG REST API.
package pubchem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chemtools/qsarpipe/internal/infrastructure/logging"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Client queries the PUG REST compound domain.
type Client struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
}

// NewClient builds a Client for the given PUG REST base URL, e.g.
// "https://pubchem.ncbi.nlm.nih.gov/rest/pug".
func NewClient(baseURL string, timeout time.Duration, log logging.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.Named("pubchem"),
	}
}

// identifierList mirrors the PUG REST response envelope for CID queries.
type identifierList struct {
	IdentifierList struct {
		CID []int64 `json:"CID"`
	} `json:"IdentifierList"`
}

// LookupCIDs resolves a SMILES string to PubChem CIDs.  An unknown
// structure returns an empty slice and no error; transport errors,
// non-2xx statuses other than 404, and malformed bodies are reported as
// EXT_002 errors.
func (c *Client) LookupCIDs(ctx context.Context, smiles string) ([]int64, error) {
	if smiles == "" {
		return nil, errors.New(errors.ErrCodeInvalidParam, "empty SMILES for CID lookup")
	}

	// The SMILES goes in the URL path; escape slashes from ring-bond
	// stereo markers and the like.
	endpoint := fmt.Sprintf("%s/compound/smiles/%s/cids/JSON",
		c.baseURL, url.PathEscape(smiles))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLookupFailed, "build CID request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLookupFailed, "CID request failed").
			WithDetail("smiles=" + smiles)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.log.Debug("no PubChem match", logging.String("smiles", smiles))
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.New(errors.ErrCodeLookupFailed, "unexpected PubChem status").
			WithDetail(fmt.Sprintf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var out identifierList
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLookupFailed, "decode CID response")
	}

	cids := out.IdentifierList.CID
	// PUG REST reports "no hit" for some inputs as a single CID 0.
	if len(cids) == 1 && cids[0] == 0 {
		cids = nil
	}
	c.log.Debug("CID lookup complete",
		logging.String("smiles", smiles),
		logging.Int("cids", len(cids)))
	return cids, nil
}
