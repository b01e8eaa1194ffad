package spectrum

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// ReadASC parses a tab-separated mass-spectrometry output stream: one
// peak per line, columns mass, intensity, error (error ignored). Blank
// lines and lines starting with '#' are skipped. If the first retained
// line's first field does not parse as a float, it is treated as a
// header row and dropped.
func ReadASC(r io.Reader) (*Spectrum, error) {
	scanner := bufio.NewScanner(r)
	var peaks []Peak
	headerChecked := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if !headerChecked {
			headerChecked = true
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				continue
			}
		}

		if len(fields) < 2 {
			continue
		}

		massVal, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		intensity, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}

		p := Peak{Mass: massVal, Intensity: intensity}
		if len(fields) >= 3 {
			p.Error = fields[2]
		}
		peaks = append(peaks, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	s := &Spectrum{Peaks: peaks}
	s.SortPeaks()
	return s, nil
}
