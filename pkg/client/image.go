package client

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
)

// SectionImage downloads one section image and decodes it to 8-bit
// grayscale, indexed as pixels[row][col]. The service divides both image
// dimensions by 2^downsample before sending. When expression is true the
// gene-expression rendition is requested instead of the raw one.
func (c *Client) SectionImage(ctx context.Context, imageID, downsample int, expression bool) ([][]uint8, error) {
	if downsample < 0 {
		return nil, fmt.Errorf("downsample must be >= 0, got %d", downsample)
	}
	u := fmt.Sprintf("%s/api/v2/section_image_download/%d?downsample=%d", c.baseURL, imageID, downsample)
	if expression {
		u += "&view=expression"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for image %d: %w", imageID, err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{URL: u, StatusCode: resp.StatusCode, Msg: strings.TrimSpace(string(body))}
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding image %d: %w", imageID, err)
	}
	return toGrayscale(img), nil
}

// toGrayscale converts a decoded image to a row-major 8-bit intensity grid.
func toGrayscale(img image.Image) [][]uint8 {
	bounds := img.Bounds()
	h := bounds.Dy()
	w := bounds.Dx()

	pixels := make([][]uint8, h)
	for y := 0; y < h; y++ {
		row := make([]uint8, w)
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			row[x] = g.Y
		}
		pixels[y] = row
	}
	return pixels
}
