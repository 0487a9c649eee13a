// Package catalog holds the talkgroup reference data. A Catalog is built once
// and never changes, so it is safe for concurrent reads without locking.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kdudkov/scanrelay/pkg/model"
)

const fieldsNum = 7

type Catalog struct {
	entries map[string]*model.TalkgroupInfo
}

func New(entries map[string]*model.TalkgroupInfo) *Catalog {
	c := &Catalog{entries: make(map[string]*model.TalkgroupInfo, len(entries))}

	for k, v := range entries {
		if v == nil {
			continue
		}

		e := *v
		c.entries[k] = &e
	}

	return c
}

func LoadFile(name string) (*Catalog, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open talkgroup file: %w", err)
	}

	defer f.Close()

	return Load(f)
}

// Load reads the talkgroup table. The first record is a header. Rows without
// the required fields are logged and skipped.
func Load(r io.Reader) (*Catalog, error) {
	logger := slog.Default().With("logger", "catalog")

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	c := &Catalog{entries: make(map[string]*model.TalkgroupInfo)}

	var skipped int

	for line := 0; ; line++ {
		rec, err := cr.Read()

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				logger.Warn("skip unparseable row", slog.Int("line", perr.Line), slog.Any("error", err))
				skipped++

				continue
			}

			return nil, err
		}

		if line == 0 {
			continue
		}

		id, info, err := parseRow(rec)
		if err != nil {
			if !blank(rec) {
				logger.Warn("skip talkgroup row", slog.Int("line", line+1), slog.Any("error", err))
				skipped++
			}

			continue
		}

		c.entries[id] = info
	}

	logger.Info(fmt.Sprintf("loaded %d talkgroups, %d rows skipped", len(c.entries), skipped))

	return c, nil
}

func parseRow(rec []string) (string, *model.TalkgroupInfo, error) {
	if len(rec) < fieldsNum {
		return "", nil, fmt.Errorf("expected %d fields, got %d", fieldsNum, len(rec))
	}

	f := make([]string, fieldsNum)
	for i := range f {
		f[i] = strings.TrimSpace(strings.ReplaceAll(rec[i], `"`, ""))
	}

	if _, err := strconv.ParseUint(f[0], 10, 64); err != nil {
		return "", nil, fmt.Errorf("bad decimal id %q", f[0])
	}

	if f[2] == "" {
		return "", nil, errors.New("no alpha tag")
	}

	if f[4] == "" {
		return "", nil, errors.New("no description")
	}

	return f[0], &model.TalkgroupInfo{
		Hex:         f[1],
		AlphaTag:    f[2],
		Mode:        f[3],
		Description: f[4],
		Tag:         f[5],
		Category:    f[6],
	}, nil
}

func blank(rec []string) bool {
	for _, s := range rec {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}

	return true
}

// Lookup never fails, a missing id is a normal result. Callers must not
// modify the returned entry.
func (c *Catalog) Lookup(id string) (*model.TalkgroupInfo, bool) {
	if c == nil {
		return nil, false
	}

	e, ok := c.entries[strings.TrimSpace(id)]

	return e, ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}

	return len(c.entries)
}

func (c *Catalog) All() map[string]*model.TalkgroupInfo {
	res := make(map[string]*model.TalkgroupInfo, c.Len())

	if c == nil {
		return res
	}

	for k, v := range c.entries {
		e := *v
		res[k] = &e
	}

	return res
}

// IDs returns talkgroup ids in numeric order.
func (c *Catalog) IDs() []string {
	res := make([]string, 0, c.Len())

	if c == nil {
		return res
	}

	for k := range c.entries {
		res = append(res, k)
	}

	sort.Slice(res, func(i, j int) bool {
		a, _ := strconv.ParseUint(res[i], 10, 64)
		b, _ := strconv.ParseUint(res[j], 10, 64)

		return a < b
	})

	return res
}
