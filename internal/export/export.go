package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	kml "github.com/twpayne/go-kml"

	"github.com/gruppe-adler/demcache/internal/sampler"
)

// Format is an output format for elevation samples.
type Format string

const (
	Text    Format = "text"
	CSV     Format = "csv"
	GeoJSON Format = "geojson"
	KML     Format = "kml"
)

// Formats lists all supported formats.
var Formats = []Format{Text, CSV, GeoJSON, KML}

// ParseFormat maps a name (case insensitive, "json" for GeoJSON) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "geojson", "json":
		return GeoJSON, nil
	case "kml":
		return KML, nil
	}
	return "", fmt.Errorf("unknown format %q, want one of %v", s, Formats)
}

// Write encodes samples in format f.
func Write(w io.Writer, f Format, samples []sampler.ElevationSample) error {
	switch f {
	case Text:
		return WriteText(w, samples)
	case CSV:
		return WriteCSV(w, samples)
	case GeoJSON:
		return WriteGeoJSON(w, samples)
	case KML:
		return WriteKML(w, samples, "")
	}
	return fmt.Errorf("unknown format %q", f)
}

// WriteText writes one human readable line per sample.
func WriteText(w io.Writer, samples []sampler.ElevationSample) error {
	for i, s := range samples {
		var err error
		if s.OK() {
			_, err = fmt.Fprintf(w, "Point %d: Lat=%.5f, Lon=%.5f, Elevation=%.2f meters\n", i+1, s.Lat, s.Lon, s.Value)
		} else {
			_, err = fmt.Fprintf(w, "Point %d: Lat=%.5f, Lon=%.5f, Error=%v\n", i+1, s.Lat, s.Lon, s.Err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes lat,lon,elevation,error rows with a header.
func WriteCSV(w io.Writer, samples []sampler.ElevationSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"lat", "lon", "elevation", "error"}); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{formatFloat(s.Lat), formatFloat(s.Lon), "", ""}
		if s.OK() {
			row[2] = formatFloat(s.Value)
		} else if s.Err != nil {
			row[3] = s.Err.Error()
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FeatureCollection converts samples to GeoJSON points. Failed samples
// carry an "error" property instead of "elevation".
func FeatureCollection(samples []sampler.ElevationSample) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range samples {
		f := geojson.NewFeature(orb.Point{s.Lon, s.Lat})
		if s.OK() {
			f.Properties["elevation"] = s.Value
		} else if s.Err != nil {
			f.Properties["error"] = s.Err.Error()
		}
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON writes samples as a GeoJSON FeatureCollection.
func WriteGeoJSON(w io.Writer, samples []sampler.ElevationSample) error {
	b, err := FeatureCollection(samples).MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// WriteKML writes samples as placemarks clamped to their sampled altitude.
// Failed samples are skipped.
func WriteKML(w io.Writer, samples []sampler.ElevationSample, name string) error {
	if name == "" {
		name = "Elevation samples"
	}

	var placemarks []kml.Element
	for i, s := range samples {
		if !s.OK() {
			continue
		}
		placemarks = append(placemarks, kml.Placemark(
			kml.Name(fmt.Sprintf("Point %d", i+1)),
			kml.Description(fmt.Sprintf("Elevation: %.2fm", s.Value)),
			kml.Point(
				kml.AltitudeMode("absolute"),
				kml.Coordinates(kml.Coordinate{Lon: s.Lon, Lat: s.Lat, Alt: s.Value}),
			),
		))
	}

	d := kml.Document(kml.Name(name)).Add(placemarks...)
	return kml.KML(d).WriteIndent(w, "", "  ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
