// Package download drives the per-image transform computation across an
// entire section dataset. It fetches dataset-wide metadata once, orders
// images by descending section number to match the physical cutting order,
// and lazily produces one result record per image: the slice's reference
// coordinate, its displacement field, the raw image pixels, and optionally
// the expression image pixels.
//
// All external lookups go through the API interface; pkg/client provides
// the HTTP implementation.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"atlasdl/pkg/config"
	"atlasdl/pkg/refspace"
	"atlasdl/pkg/transform"
)

// PIR is a point in the reference space given by its three axis values.
type PIR struct {
	P, I, R float64
}

// ImageMetadata carries the per-image alignment information returned by a
// bulk metadata lookup.
type ImageMetadata struct {
	// Affine2D maps section space onto this image's pixel grid.
	Affine2D *transform.Affine2D

	// SectionNumber orders slices within the dataset. It need not be
	// contiguous; it is used purely as a sort key.
	SectionNumber int
}

// API is the set of collaborator operations the synchronizer consumes.
// Every call is a blocking round trip; implementations decide transport,
// timeouts, and parsing.
type API interface {
	// BulkImageMetadata returns alignment metadata for every image in the
	// dataset, keyed by image id.
	BulkImageMetadata(ctx context.Context, datasetID int) (map[int]ImageMetadata, error)

	// DatasetAffine3D returns the dataset-level reference-space to
	// section-space affine.
	DatasetAffine3D(ctx context.Context, datasetID int) (*transform.Affine3D, error)

	// DatasetAxis returns the anatomical plane the dataset was sliced
	// along.
	DatasetAxis(ctx context.Context, datasetID int) (refspace.Axis, error)

	// ResolvePoint returns the reference-space point for pixel (x, y) of
	// the given image.
	ResolvePoint(ctx context.Context, x, y float64, imageID int) (PIR, error)

	// SectionImage downloads the image pixels as 8-bit grayscale, with
	// width and height divided by 2^downsample. When expression is true
	// the gene-expression rendition is downloaded instead of the raw one.
	SectionImage(ctx context.Context, imageID, downsample int, expression bool) ([][]uint8, error)
}

// Options configures a dataset iteration. The zero value is usable; the
// field defaults below are applied by Dataset.
type Options struct {
	// DownsampleRef is the reference grid stride. Defaults to 25.
	DownsampleRef int

	// DetectionXY is the pixel location within each image whose
	// reference-space point determines the slice coordinate. Defaults to
	// the image origin (0, 0).
	//
	// This assumes the physical slice plane is exactly parallel to one
	// reference axis, so a single coordinate fully determines the slice.
	// Datasets with oblique slicing violate the assumption silently.
	DetectionXY [2]float64

	// IncludeExpression requests the gene-expression image alongside the
	// raw one; the record's Expression field is populated when set.
	IncludeExpression bool

	// DownsampleImg downsamples the downloaded images (and the field's
	// pixel coordinates) by 2^DownsampleImg.
	DownsampleImg int

	// Logger receives per-image progress at debug level. Defaults to a
	// discarding logger.
	Logger *slog.Logger
}

// OptionsFromConfig seeds Options from the download section of a loaded
// configuration file.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DownsampleRef:     cfg.Download.DownsampleRef,
		IncludeExpression: cfg.Download.IncludeExpression,
		DownsampleImg:     cfg.Download.DownsampleImg,
	}
}

// Record is the per-image result produced by the iterator. Ownership
// transfers to the consumer on emission; the iterator keeps no reference.
type Record struct {
	// ImageID identifies the section image.
	ImageID int

	// SliceCoordinate is the reference-space value along the dataset's
	// slicing axis at which this image was cut: the p coordinate for
	// coronal datasets, the r coordinate otherwise.
	SliceCoordinate float64

	// Image holds the raw image pixels.
	Image [][]uint8

	// Field maps the reference-space grid onto the image's pixel grid.
	Field *transform.DisplacementField

	// Expression holds the gene-expression image pixels. It is nil unless
	// Options.IncludeExpression was set.
	Expression [][]uint8
}

type imageEntry struct {
	id            int
	affine2D      *transform.Affine2D
	sectionNumber int
}

// Iterator produces dataset records one at a time, in strictly descending
// section-number order. It is a pull-based cursor: no work happens until
// Next is called, dataset-wide metadata is fetched on the first call, and
// each subsequent call performs exactly one image's lookups and transform.
//
// An Iterator is single-use and not safe for concurrent use. To cancel,
// stop calling Next (or cancel the context passed to it); no cleanup is
// needed because every emitted record owns its own resources.
type Iterator struct {
	api       API
	datasetID int
	opts      Options

	started  bool
	entries  []imageEntry
	affine3D *transform.Affine3D
	axis     refspace.Axis
	cursor   int

	rec *Record
	err error
}

// Dataset prepares an iteration over every image of a section dataset. No
// collaborator call is made until the first Next.
func Dataset(api API, datasetID int, opts Options) *Iterator {
	if opts.DownsampleRef == 0 {
		opts.DownsampleRef = 25
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Iterator{api: api, datasetID: datasetID, opts: opts}
}

// Next advances to the next image, performing its lookups and transform.
// It returns false when the dataset is exhausted or an error occurred;
// check Err after the loop. Records already produced remain valid after a
// failure.
func (it *Iterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if !it.started {
		if err := it.init(ctx); err != nil {
			it.err = err
			return false
		}
		it.started = true
	}
	if it.cursor >= len(it.entries) {
		it.rec = nil
		return false
	}
	entry := it.entries[it.cursor]
	it.cursor++

	rec, err := it.produce(ctx, entry)
	if err != nil {
		it.err = err
		it.rec = nil
		return false
	}
	it.rec = rec
	return true
}

// Record returns the record produced by the last successful Next.
func (it *Iterator) Record() *Record { return it.rec }

// Err returns the first error encountered, if any. Collaborator failures
// propagate unchanged; there is no retry and no partial-result buffering.
func (it *Iterator) Err() error { return it.err }

// init performs the dataset-wide lookups: bulk image metadata, processing
// order, the 3D affine, and the slicing axis. Their results live for the
// whole iteration.
func (it *Iterator) init(ctx context.Context) error {
	if it.opts.DownsampleRef < 1 {
		return fmt.Errorf("%w: downsampleRef must be >= 1, got %d",
			transform.ErrInvalidArgument, it.opts.DownsampleRef)
	}
	if it.opts.DownsampleImg < 0 {
		return fmt.Errorf("%w: downsampleImg must be >= 0, got %d",
			transform.ErrInvalidArgument, it.opts.DownsampleImg)
	}

	meta, err := it.api.BulkImageMetadata(ctx, it.datasetID)
	if err != nil {
		return fmt.Errorf("bulk image metadata for dataset %d: %w", it.datasetID, err)
	}
	entries := make([]imageEntry, 0, len(meta))
	for id, m := range meta {
		if m.Affine2D == nil {
			return fmt.Errorf("%w: image %d has no 2d alignment", transform.ErrInvalidArgument, id)
		}
		entries = append(entries, imageEntry{id: id, affine2D: m.Affine2D, sectionNumber: m.SectionNumber})
	}
	// Highest section number first, matching the physical cutting order.
	// Ties fall back to ascending image id so one dataset always iterates
	// the same way.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].sectionNumber != entries[j].sectionNumber {
			return entries[i].sectionNumber > entries[j].sectionNumber
		}
		return entries[i].id < entries[j].id
	})
	it.entries = entries

	affine3D, err := it.api.DatasetAffine3D(ctx, it.datasetID)
	if err != nil {
		return fmt.Errorf("3d alignment for dataset %d: %w", it.datasetID, err)
	}
	it.affine3D = affine3D

	axis, err := it.api.DatasetAxis(ctx, it.datasetID)
	if err != nil {
		return fmt.Errorf("slicing axis for dataset %d: %w", it.datasetID, err)
	}
	if !axis.Valid() {
		return fmt.Errorf("%w: %q for dataset %d", refspace.ErrUnknownAxis, axis, it.datasetID)
	}
	it.axis = axis

	it.opts.Logger.Debug("dataset metadata loaded",
		"dataset", it.datasetID, "images", len(entries), "axis", string(axis))
	return nil
}

// produce performs one image's worth of work: resolve the slice
// coordinate, compute the displacement field, download the pixels.
func (it *Iterator) produce(ctx context.Context, entry imageEntry) (*Record, error) {
	pir, err := it.api.ResolvePoint(ctx, it.opts.DetectionXY[0], it.opts.DetectionXY[1], entry.id)
	if err != nil {
		return nil, fmt.Errorf("resolve point for image %d: %w", entry.id, err)
	}
	sliceCoord := pir.R
	if it.axis == refspace.Coronal {
		sliceCoord = pir.P
	}

	field, err := transform.Compute(sliceCoord, entry.affine2D, it.affine3D, it.axis,
		it.opts.DownsampleRef, it.opts.DownsampleImg)
	if err != nil {
		return nil, fmt.Errorf("transform for image %d: %w", entry.id, err)
	}

	img, err := it.api.SectionImage(ctx, entry.id, it.opts.DownsampleImg, false)
	if err != nil {
		return nil, fmt.Errorf("download image %d: %w", entry.id, err)
	}

	rec := &Record{
		ImageID:         entry.id,
		SliceCoordinate: sliceCoord,
		Image:           img,
		Field:           field,
	}
	if it.opts.IncludeExpression {
		expr, err := it.api.SectionImage(ctx, entry.id, it.opts.DownsampleImg, true)
		if err != nil {
			return nil, fmt.Errorf("download expression image %d: %w", entry.id, err)
		}
		rec.Expression = expr
	}

	it.opts.Logger.Debug("image synchronized",
		"image", entry.id, "section", entry.sectionNumber, "coordinate", sliceCoord)
	return rec, nil
}
