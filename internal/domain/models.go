package domain

import (
	"encoding/json"
	"fmt"
	"io"
)

// StoredImage is an image file kept in the storage area.
type StoredImage struct {
	// Path is relative to the storage root and always uses forward slashes.
	Path   string `json:"path"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Format string `json:"format"`
}

type ItemKind int

const (
	ItemRejected ItemKind = iota
	ItemImage
	ItemArchive
)

func (k ItemKind) String() string {
	switch k {
	case ItemImage:
		return "image"
	case ItemArchive:
		return "archive"
	default:
		return "rejected"
	}
}

// UploadItem is one part of a multipart upload.
type UploadItem struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type UploadBatch []UploadItem

type SkippedItem struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type UploadSummary struct {
	Stored  []string      `json:"stored"`
	Skipped []SkippedItem `json:"skipped,omitempty"`
}

// Skip records an item that was not stored.
func (s *UploadSummary) Skip(name, reason string) {
	s.Skipped = append(s.Skipped, SkippedItem{Name: name, Reason: reason})
}

type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ResultRecord is the placeholder verdict for one stored image.
// BBox is set if and only if IsEmpty is false.
type ResultRecord struct {
	Filename string
	IsEmpty  bool
	BBox     *BBox
}

type resultWire struct {
	Filename string          `json:"filename"`
	IsEmpty  json.RawMessage `json:"is_empty"`
	BBox     *BBox           `json:"bbox"`
}

// MarshalJSON writes is_empty as 0/1 and bbox as null for empty images.
func (r ResultRecord) MarshalJSON() ([]byte, error) {
	flag := "0"
	if r.IsEmpty {
		flag = "1"
	}
	return json.Marshal(resultWire{
		Filename: r.Filename,
		IsEmpty:  json.RawMessage(flag),
		BBox:     r.BBox,
	})
}

// UnmarshalJSON accepts is_empty as 0/1 or true/false.
func (r *ResultRecord) UnmarshalJSON(data []byte) error {
	var w resultWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch string(w.IsEmpty) {
	case "1", "true":
		r.IsEmpty = true
	case "0", "false":
		r.IsEmpty = false
	case "", "null":
		return fmt.Errorf("result %q: missing is_empty", w.Filename)
	default:
		return fmt.Errorf("result %q: invalid is_empty value %s", w.Filename, w.IsEmpty)
	}

	r.Filename = w.Filename
	r.BBox = w.BBox
	return nil
}

// Validate checks the bbox/is_empty pairing.
func (r ResultRecord) Validate() error {
	if r.IsEmpty && r.BBox != nil {
		return fmt.Errorf("result %q: empty image carries a bbox", r.Filename)
	}
	if !r.IsEmpty && r.BBox == nil {
		return fmt.Errorf("result %q: non-empty image has no bbox", r.Filename)
	}
	return nil
}

type ProcessingParams struct {
	BodyPercentage int `json:"body_percentage" form:"body_percentage"`
	BBoxWidth      int `json:"bbox_width" form:"bbox_width"`
	BBoxHeight     int `json:"bbox_height" form:"bbox_height"`
	LimbPoints     int `json:"limb_points" form:"limb_points"`
}

// Canvas is the area a bounding box is placed on.
type Canvas struct {
	Width  int
	Height int
}

// Fits reports whether a w×h box can be placed on the canvas.
func (c Canvas) Fits(w, h int) bool {
	return w >= 0 && h >= 0 && w <= c.Width && h <= c.Height
}

type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Summary struct {
	Total    int `json:"total"`
	Empty    int `json:"empty"`
	NonEmpty int `json:"non_empty"`
	// Emptiness and Quality hold the same counts under different labels.
	Emptiness []Count `json:"emptiness"`
	Quality   []Count `json:"quality"`
}
