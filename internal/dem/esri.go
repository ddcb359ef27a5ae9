package dem

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// EsriASCIIRaster represents the header of an ESRI ASCII grid. The lower
// left reference is either a corner or a cell center, never both.
type EsriASCIIRaster struct {
	Ncols, Nrows     int
	Xcenter, Ycenter *float64
	Xcorner, Ycorner *float64
	CellSize         float64
	NoDataValue      float64
}

// DefaultNoData is used when a grid doesn't declare NODATA_VALUE.
const DefaultNoData = -9999

const maxLineLength = 64 * 1024 * 1024

// Transform derives the north-up geotransform from the header.
func (h EsriASCIIRaster) Transform() Geotransform {
	var west, south float64
	if h.Xcorner != nil {
		west = *h.Xcorner
	} else if h.Xcenter != nil {
		west = *h.Xcenter - h.CellSize/2
	}
	if h.Ycorner != nil {
		south = *h.Ycorner
	} else if h.Ycenter != nil {
		south = *h.Ycenter - h.CellSize/2
	}
	north := south + float64(h.Nrows)*h.CellSize
	return NewGeotransform(west, h.CellSize, north, -h.CellSize)
}

// ParseEsriASCIIRaster reads an ESRI ASCII grid into a Grid.
func ParseEsriASCIIRaster(reader io.Reader) (*Grid, error) {
	header := EsriASCIIRaster{NoDataValue: DefaultNoData}
	remainingHeaders := []string{"NCOLS", "NROWS", "XLLCENTER", "XLLCORNER", "YLLCENTER", "YLLCORNER", "CELLSIZE", "NODATA_VALUE"}
	stillIsHeader := true
	var grid *Grid
	row := 0

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		keyword := strings.ToUpper(fields[0])

		if stillIsHeader && contains(remainingHeaders, keyword) {
			remainingHeaders = remove(remainingHeaders, keyword)

			// corner and center are mutually exclusive
			switch keyword {
			case "XLLCENTER", "YLLCENTER":
				remainingHeaders = remove(remainingHeaders, "XLLCORNER")
				remainingHeaders = remove(remainingHeaders, "YLLCORNER")
			case "XLLCORNER", "YLLCORNER":
				remainingHeaders = remove(remainingHeaders, "XLLCENTER")
				remainingHeaders = remove(remainingHeaders, "YLLCENTER")
			}

			if err := parseHeaderLine(fields, &header); err != nil {
				return nil, err
			}
			continue
		}

		if stillIsHeader {
			// NODATA_VALUE is optional
			remainingHeaders = remove(remainingHeaders, "NODATA_VALUE")
			if len(remainingHeaders) > 0 {
				return nil, fmt.Errorf("ESRI grid is missing headers: %s", strings.Join(remainingHeaders, ", "))
			}
			stillIsHeader = false
			grid = &Grid{
				Cols:      header.Ncols,
				Rows:      header.Nrows,
				Transform: header.Transform(),
				NoData:    header.NoDataValue,
				Data:      make([]float32, header.Ncols*header.Nrows),
			}
		}

		if err := parseDataLine(fields, grid.Data[row*grid.Cols:(row+1)*grid.Cols]); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		row++
		if row >= grid.Rows {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if grid == nil {
		return nil, fmt.Errorf("ESRI grid has no data rows")
	}
	if row < grid.Rows {
		return nil, fmt.Errorf("ESRI grid has %d rows, header says %d", row, grid.Rows)
	}

	return grid, grid.validate()
}

func parseHeaderLine(fields []string, h *EsriASCIIRaster) error {
	if len(fields) != 2 {
		return fmt.Errorf("header line must have exactly two fields, got %q", strings.Join(fields, " "))
	}

	keyword := strings.ToUpper(fields[0])
	switch keyword {
	case "NCOLS", "NROWS":
		i, err := strconv.ParseUint(fields[1], 10, 31)
		if err != nil {
			return fmt.Errorf("%s: %w", keyword, err)
		}
		if keyword == "NCOLS" {
			h.Ncols = int(i)
		} else {
			h.Nrows = int(i)
		}
		return nil
	}

	f, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("%s: %w", keyword, err)
	}

	switch keyword {
	case "XLLCENTER":
		h.Xcenter = &f
	case "XLLCORNER":
		h.Xcorner = &f
	case "YLLCENTER":
		h.Ycenter = &f
	case "YLLCORNER":
		h.Ycorner = &f
	case "CELLSIZE":
		if f <= 0.0 {
			return fmt.Errorf("CELLSIZE must be greater than 0")
		}
		h.CellSize = f
	case "NODATA_VALUE":
		h.NoDataValue = f
	default:
		return fmt.Errorf("unknown header keyword: %s", fields[0])
	}

	return nil
}

func parseDataLine(fields []string, row []float32) error {
	if len(fields) < len(row) {
		return fmt.Errorf("data row is too short: %d of %d values", len(fields), len(row))
	}

	for i := range row {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return err
		}
		row[i] = float32(f)
	}

	return nil
}

// EncodeEsriASCIIRaster writes g as an ESRI ASCII grid. The grid must be
// north-up with square cells.
func EncodeEsriASCIIRaster(w io.Writer, g *Grid) error {
	if err := g.validate(); err != nil {
		return err
	}
	if g.Transform.Rotated() || g.Transform.PixelHeight() != -g.Transform.PixelWidth() {
		return fmt.Errorf("ESRI grids need north-up square cells")
	}

	west, south, _, _ := g.Extent()
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\nnrows %d\n", g.Cols, g.Rows)
	fmt.Fprintf(bw, "xllcorner %s\nyllcorner %s\n", formatFloat(west), formatFloat(south))
	fmt.Fprintf(bw, "cellsize %s\nNODATA_value %s\n", formatFloat(g.Transform.PixelWidth()), formatFloat(g.NoData))

	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			if x > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(float64(g.At(x, y)), 'g', -1, 32))
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// contains checks whether an array contains a string
func contains(array []string, element string) bool {
	for _, curElement := range array {
		if curElement == element {
			return true
		}
	}
	return false
}

// remove removes a string from an array
func remove(arr []string, element string) []string {
	var remaining []string

	for i := 0; i < len(arr); i++ {
		if element != arr[i] {
			remaining = append(remaining, arr[i])
		}
	}

	return remaining
}
