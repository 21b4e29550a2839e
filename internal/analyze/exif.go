package analyze

import (
	"io"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// extractExif pulls camera fields from JPEG/TIFF EXIF blocks.
// Returns nil when no EXIF is present.
func extractExif(r io.Reader) map[string]any {
	x, err := exif.Decode(r)
	if err != nil {
		return nil
	}

	out := map[string]any{}

	if mk := tagString(x, exif.Make); mk != "" {
		out["camera_make"] = mk
	}
	if model := tagString(x, exif.Model); model != "" {
		out["camera_model"] = model
	}
	if dt, err := x.DateTime(); err == nil {
		out["date_taken"] = dt
	}
	if iso, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if v, err := iso.Int(0); err == nil {
			out["iso"] = v
		}
	}
	if orient, err := x.Get(exif.Orientation); err == nil {
		if v, err := orient.Int(0); err == nil && v >= 1 && v <= 8 {
			out["orientation"] = v
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// tagString extracts a string value from an EXIF tag.
func tagString(x *exif.Exif, f exif.FieldName) string {
	tag, err := x.Get(f)
	if err != nil {
		return ""
	}
	if tag.Format() == tiff.StringVal {
		s, _ := tag.StringVal()
		return s
	}
	return tag.String()
}
