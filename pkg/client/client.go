// Package client implements the atlas web-service collaborators consumed
// by pkg/download: bulk per-image alignment metadata, dataset-level 3D
// alignment, slicing-plane lookup, pixel-to-reference point resolution,
// and section image download.
//
// The client performs no caching, no retries, and no concurrent fan-out;
// every method is a single blocking round trip bounded only by the
// configured HTTP timeout and the caller's context.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"atlasdl/internal/rma"
	"atlasdl/pkg/config"
	"atlasdl/pkg/download"
	"atlasdl/pkg/refspace"
	"atlasdl/pkg/transform"
)

// bulkRowLimit caps the number of section images requested in the bulk
// metadata query. Datasets hold at most a few hundred images.
const bulkRowLimit = 5000

// APIError describes a collaborator call that reached the service but did
// not produce a usable response.
type APIError struct {
	URL        string
	StatusCode int
	Msg        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("atlas api: %s: status %d: %s", e.URL, e.StatusCode, e.Msg)
}

// Client talks to the atlas web service. It satisfies download.API.
type Client struct {
	baseURL string
	hc      *http.Client
}

// New creates a client from a loaded configuration.
func New(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.API.BaseURL,
		hc:      &http.Client{Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second},
	}
}

// NewDefault creates a client with the default configuration.
func NewDefault() *Client {
	return New(config.DefaultConfig())
}

// sectionImageRow is the RMA row for a section image with its 2D
// alignment included.
type sectionImageRow struct {
	ID            int `json:"id"`
	SectionNumber int `json:"section_number"`
	Alignment2D   *struct {
		// tvs_* is the reference-to-image direction of the 2D alignment.
		TVS00 float64 `json:"tvs_00"`
		TVS01 float64 `json:"tvs_01"`
		TVS02 float64 `json:"tvs_02"`
		TVS03 float64 `json:"tvs_03"`
		TVS04 float64 `json:"tvs_04"`
		TVS05 float64 `json:"tvs_05"`
	} `json:"alignment2d"`
}

// BulkImageMetadata fetches the 2D alignment and section number of every
// image in the dataset in a single query.
func (c *Client) BulkImageMetadata(ctx context.Context, datasetID int) (map[int]download.ImageMetadata, error) {
	q := rma.Query{
		Model:    "SectionImage",
		Criteria: fmt.Sprintf("[data_set_id$eq%d]", datasetID),
		Include:  []string{"alignment2d"},
		NumRows:  bulkRowLimit,
	}
	var rows []sectionImageRow
	if err := rma.Get(ctx, c.hc, q.URL(c.baseURL), &rows); err != nil {
		return nil, err
	}
	meta := make(map[int]download.ImageMetadata, len(rows))
	for _, row := range rows {
		if row.Alignment2D == nil {
			return nil, fmt.Errorf("section image %d has no 2d alignment", row.ID)
		}
		a := row.Alignment2D
		// The service stores the affine column-major: (tvs_00..tvs_03) is
		// the 2x2 linear part, (tvs_04, tvs_05) the translation.
		affine, err := transform.NewAffine2D([]float64{
			a.TVS00, a.TVS02, a.TVS04,
			a.TVS01, a.TVS03, a.TVS05,
		})
		if err != nil {
			return nil, fmt.Errorf("section image %d: %w", row.ID, err)
		}
		meta[row.ID] = download.ImageMetadata{
			Affine2D:      affine,
			SectionNumber: row.SectionNumber,
		}
	}
	return meta, nil
}

// datasetRow is the RMA row for a section dataset with its 3D alignment
// and slicing plane included.
type datasetRow struct {
	ID          int `json:"id"`
	Alignment3D *struct {
		// trv_* is the reference-to-volume direction of the 3D alignment.
		TRV00 float64 `json:"trv_00"`
		TRV01 float64 `json:"trv_01"`
		TRV02 float64 `json:"trv_02"`
		TRV03 float64 `json:"trv_03"`
		TRV04 float64 `json:"trv_04"`
		TRV05 float64 `json:"trv_05"`
		TRV06 float64 `json:"trv_06"`
		TRV07 float64 `json:"trv_07"`
		TRV08 float64 `json:"trv_08"`
		TRV09 float64 `json:"trv_09"`
		TRV10 float64 `json:"trv_10"`
		TRV11 float64 `json:"trv_11"`
	} `json:"alignment3d"`
	PlaneOfSection *struct {
		Name string `json:"name"`
	} `json:"plane_of_section"`
}

// DatasetAffine3D fetches the dataset-level reference-space to
// section-space affine.
func (c *Client) DatasetAffine3D(ctx context.Context, datasetID int) (*transform.Affine3D, error) {
	q := rma.Query{
		Model:    "SectionDataSet",
		Criteria: fmt.Sprintf("[id$eq%d]", datasetID),
		Include:  []string{"alignment3d"},
	}
	var rows []datasetRow
	if err := rma.Get(ctx, c.hc, q.URL(c.baseURL), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %d not found", datasetID)
	}
	a := rows[0].Alignment3D
	if a == nil {
		return nil, fmt.Errorf("dataset %d has no 3d alignment", datasetID)
	}
	// Column-major: trv_00..trv_08 is the 3x3 linear part, trv_09..trv_11
	// the translation.
	return transform.NewAffine3D([]float64{
		a.TRV00, a.TRV03, a.TRV06, a.TRV09,
		a.TRV01, a.TRV04, a.TRV07, a.TRV10,
		a.TRV02, a.TRV05, a.TRV08, a.TRV11,
	})
}

// DatasetAxis fetches the anatomical plane the dataset was sliced along.
func (c *Client) DatasetAxis(ctx context.Context, datasetID int) (refspace.Axis, error) {
	q := rma.Query{
		Model:    "SectionDataSet",
		Criteria: fmt.Sprintf("[id$eq%d]", datasetID),
		Include:  []string{"plane_of_section"},
	}
	var rows []datasetRow
	if err := rma.Get(ctx, c.hc, q.URL(c.baseURL), &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("dataset %d not found", datasetID)
	}
	if rows[0].PlaneOfSection == nil {
		return "", fmt.Errorf("dataset %d has no plane of section", datasetID)
	}
	return refspace.ParseAxis(rows[0].PlaneOfSection.Name)
}

// ResolvePoint maps pixel (x, y) of the given image to its
// reference-space point.
func (c *Client) ResolvePoint(ctx context.Context, x, y float64, imageID int) (download.PIR, error) {
	u := fmt.Sprintf("%s/api/v2/image_to_reference/%d.json?x=%g&y=%g", c.baseURL, imageID, x, y)
	var out struct {
		ImageToReference struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
		} `json:"image_to_reference"`
	}
	if err := rma.Get(ctx, c.hc, u, &out); err != nil {
		return download.PIR{}, err
	}
	// Reference-space x/y/z correspond to the p/i/r axis values.
	return download.PIR{
		P: out.ImageToReference.X,
		I: out.ImageToReference.Y,
		R: out.ImageToReference.Z,
	}, nil
}
