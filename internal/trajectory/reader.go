package trajectory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/pedflow/internal/fsutil"
	"github.com/banshee-data/pedflow/internal/units"
)

var (
	// ErrNoFrameRate is returned when a file has no framerate header and no
	// override was given.
	ErrNoFrameRate = errors.New("trajectory file has no framerate")
	// ErrNoSamples is returned when a file has no data rows.
	ErrNoSamples = errors.New("trajectory file has no samples")
)

type record struct {
	ped, frame int
	x, y, z    float64
}

// ReadOptions tune Read.
type ReadOptions struct {
	// FPS overrides the framerate header when positive.
	FPS float64
}

// Read parses the plain text trajectory format. Header comments start with
// '#', the frame rate comes from a "#framerate: N" line and each data row
// holds "ID FR X Y [Z]" in metres. Positions are stored in centimetres.
func Read(r io.Reader, opts ReadOptions) (*Table, error) {
	var (
		fps     float64
		records []record
		lineNo  int
	)
	minFrame, maxFrame := math.MaxInt, math.MinInt

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if v, ok := headerValue(line, "framerate"); ok {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad framerate %q: %w", lineNo, v, err)
				}
				fps = f
			}
			continue
		}
		rec, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
		minFrame = min(minFrame, rec.frame)
		maxFrame = max(maxFrame, rec.frame)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trajectories: %w", err)
	}

	if opts.FPS > 0 {
		fps = opts.FPS
	}
	if fps <= 0 {
		return nil, ErrNoFrameRate
	}
	if len(records) == 0 {
		return nil, ErrNoSamples
	}

	t, err := NewTable(fps, minFrame, maxFrame-minFrame+1)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		err := t.Set(rec.ped, rec.frame-minFrame,
			rec.x*units.MToCM, rec.y*units.MToCM, rec.z*units.MToCM)
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ReadFile opens path on fsys and parses it with Read.
func ReadFile(fsys fsutil.FileSystem, path string, opts ReadOptions) (*Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trajectory file: %w", err)
	}
	defer f.Close()

	t, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// headerValue extracts the value of a "#key: value" comment.
func headerValue(line, key string) (string, bool) {
	body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	name, value, found := strings.Cut(body, ":")
	if !found || !strings.EqualFold(strings.TrimSpace(name), key) {
		return "", false
	}
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

func parseRow(line string) (record, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return record{}, fmt.Errorf("want at least 4 columns, got %d", len(fields))
	}
	var rec record
	var err error
	if rec.ped, err = strconv.Atoi(fields[0]); err != nil {
		return record{}, fmt.Errorf("bad pedestrian id %q: %w", fields[0], err)
	}
	if rec.frame, err = strconv.Atoi(fields[1]); err != nil {
		return record{}, fmt.Errorf("bad frame %q: %w", fields[1], err)
	}
	if rec.x, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return record{}, fmt.Errorf("bad x %q: %w", fields[2], err)
	}
	if rec.y, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return record{}, fmt.Errorf("bad y %q: %w", fields[3], err)
	}
	if len(fields) > 4 {
		if rec.z, err = strconv.ParseFloat(fields[4], 64); err != nil {
			return record{}, fmt.Errorf("bad z %q: %w", fields[4], err)
		}
	}
	return rec, nil
}
